package chunk

import (
	"github.com/coreos/go-semver/semver"

	hmrruntime "github.com/wippyai/hmr-runtime"
	"github.com/wippyai/hmr-runtime/errors"
)

// Manifest is the JSON envelope a host uses to ship chunk payloads and
// update instructions whose factories arrive as source text. The runtime's
// factory compiler hook turns each source body into a factory.
type Manifest struct {
	// ABIVersion is the context ABI version the payload was produced for.
	ABIVersion string `json:"abiVersion"`
	// Chunks maps chunk path to its module sources.
	Chunks map[string][]ModuleSource `json:"chunks"`
	// Instructions carry the update classification per chunk, empty for a
	// full (initial) manifest.
	Instructions []Instruction `json:"instructions,omitempty"`
	// Entry is the id to require after installation, if any.
	Entry string `json:"entry,omitempty"`
}

// ModuleSource is one factory group in source form.
type ModuleSource struct {
	IDs    []string `json:"ids"`
	Source string   `json:"source"`
}

// CheckVersion verifies a manifest ABI version against the running
// runtime's. Compatible means same major and a manifest minor no newer
// than the runtime's; the context ABI only grows within a major.
func CheckVersion(manifestVersion string) error {
	mv, err := semver.NewVersion(manifestVersion)
	if err != nil {
		return errors.Wrap(errors.PhaseDecode, errors.KindVersionMismatch, err,
			"parse manifest ABI version "+manifestVersion)
	}

	rv := semver.New(hmrruntime.ABIVersion)
	if mv.Major != rv.Major || mv.Minor > rv.Minor {
		return errors.VersionMismatch(manifestVersion, hmrruntime.ABIVersion)
	}
	return nil
}
