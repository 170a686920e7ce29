package plugin

// Descriptor is the passive identity record for one extension, shown
// to the management surface. For packaged extensions it comes from the
// manifest; for loose files the identity fields are filled in from the
// instance's self-reported values after construction.
type Descriptor struct {
	ID          string
	Name        string
	Description string
	Version     string
	Author      string

	// Path is the extension's package directory on disk.
	Path string

	// Main is the entry script relative to Path.
	Main string

	// Capabilities lists the declared capability contract names.
	Capabilities []string

	// Enabled is the manifest enablement flag.
	Enabled bool

	// LooseFile is true for a bare script discovered without a manifest.
	LooseFile bool

	// Synthetic is true when no manifest file exists; only then may
	// the script's self-reported identity overlay the descriptor.
	Synthetic bool
}

// DescriptorFromManifest builds a descriptor from a validated manifest.
func DescriptorFromManifest(m *Manifest) *Descriptor {
	return &Descriptor{
		ID:           m.ID,
		Name:         m.Name,
		Description:  m.Description,
		Version:      m.Version,
		Author:       m.Author,
		Path:         m.Path(),
		Main:         m.Main,
		Capabilities: append([]string(nil), m.Capabilities...),
		Enabled:      m.IsEnabled(),
		Synthetic:    m.IsSynthetic(),
	}
}

// AdoptIdentity overlays self-reported identity fields onto the
// descriptor. Empty reported values leave existing fields alone.
func (d *Descriptor) AdoptIdentity(id, version, author string) {
	if id != "" {
		d.ID = id
		if d.Name == "" || d.Name == d.ID {
			d.Name = id
		}
	}
	if version != "" {
		d.Version = version
	}
	if author != "" {
		d.Author = author
	}
}
