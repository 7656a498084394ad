// Copyright (c) 2025 Foodshare
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// MaxImageSize bounds images attached to new donations.
const MaxImageSize = 5 << 20

// ImageDataURL reads the file at path and returns it as a data URL suitable
// for NewDonation.ImageBase64.
func ImageDataURL(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	if len(b) > MaxImageSize {
		return "", fmt.Errorf("image %s is larger than %d MB", filepath.Base(path), MaxImageSize>>20)
	}
	mime := http.DetectContentType(b)
	if !strings.HasPrefix(mime, "image/") {
		return "", fmt.Errorf("%s does not look like an image (%s)", filepath.Base(path), mime)
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(b), nil
}
