package app

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// manifestInput is one input file of a run and the digest of its bytes.
type manifestInput struct {
	Role   string `json:"role"`
	Path   string `json:"path"`
	SHA256 string `json:"sha256"`
}

// manifest describes a generation run. It carries no timestamp so that two
// runs over the same inputs write identical sidecars.
type manifest struct {
	Inputs                []manifestInput `json:"inputs"`
	Records               int             `json:"records"`
	Fallbacks             int             `json:"fallbacks"`
	FallbacksBeforeMaster int             `json:"fallbacks_before_master"`
	Output                string          `json:"output"`
	OutputSHA256          string          `json:"output_sha256"`
}

// computeSHA256Hex returns a lowercase hex-encoded SHA-256 of the given text.
func computeSHA256Hex(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

// marshalManifestJSON encodes the machine-readable sidecar manifest.
func marshalManifestJSON(m manifest) ([]byte, error) {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// deriveManifestSidecarPath returns a sidecar JSON path next to the output.
func deriveManifestSidecarPath(outputPath string) string {
	return outputPath + ".manifest.json"
}
