package Exports

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"Invoicing/Billing"
)

// LogoMaxWidth is the width in pixels logos are scaled down to.
const LogoMaxWidth = 300

// SaveLogo decodes an uploaded image, scales it down to LogoMaxWidth and
// writes it to dst in the format implied by dst's extension.
func SaveLogo(src io.Reader, dst string) error {
	img, err := imaging.Decode(src, imaging.AutoOrientation(true))
	if err != nil {
		return Billing.Validation("SaveLogo", "unsupported image: %v", err)
	}
	if img.Bounds().Dx() > LogoMaxWidth {
		img = imaging.Resize(img, LogoMaxWidth, 0, imaging.Lanczos)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create logo directory: %w", err)
	}
	if err := imaging.Save(img, dst); err != nil {
		return fmt.Errorf("failed to save logo: %w", err)
	}
	return nil
}
