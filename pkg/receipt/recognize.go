package receipt

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

const (
	currencyWhitelist = "0123456789R$r.,:()/- "
	digitWhitelist    = "0123456789., "
	fullWhitelist     = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyzR$.,:()/- "
)

// RecognizeText runs the multi-pass OCR pipeline over a receipt image and
// returns the aggregate recognized text. Passes: the raw image with a full
// whitelist, a preprocessed variant with a currency whitelist, a digits-only
// variant, and an inverted variant (dark-theme banking screenshots).
func RecognizeText(path string) (string, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	gray := imaging.Grayscale(img)
	gray = imaging.AdjustContrast(gray, 15)
	gray = imaging.Sharpen(gray, 0.7)
	if gray.Bounds().Dy() < 900 {
		gray = imaging.Resize(gray, 0, 1300, imaging.Lanczos)
	}
	bin := binarize(gray, 210)

	prepped := path
	if tmp, err := os.CreateTemp("", "receipt-*.png"); err == nil {
		prepped = tmp.Name()
		_ = tmp.Close()
		if err := imaging.Save(bin, prepped); err != nil {
			prepped = path
		} else {
			defer os.Remove(prepped)
		}
	}

	inverted := ""
	if tmp, err := os.CreateTemp("", "receipt-inv-*.png"); err == nil {
		inverted = tmp.Name()
		_ = tmp.Close()
		if err := imaging.Save(imaging.Invert(gray), inverted); err != nil {
			_ = os.Remove(inverted)
			inverted = ""
		} else {
			defer os.Remove(inverted)
		}
	}

	passes := []struct {
		image     string
		whitelist string
	}{
		{path, fullWhitelist},
		{prepped, currencyWhitelist},
		{prepped, digitWhitelist},
	}
	if inverted != "" {
		passes = append(passes, struct {
			image     string
			whitelist string
		}{inverted, currencyWhitelist})
	}

	var variants []string
	var firstErr error
	for _, p := range passes {
		text, err := runPass(p.image, p.whitelist)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if text != "" {
			variants = append(variants, text)
		}
	}
	if len(variants) == 0 {
		if firstErr != nil {
			return "", fmt.Errorf("ocr: %w", firstErr)
		}
		return "", ErrUnreadable
	}
	aggregate := strings.Join(variants, " ")
	log.Printf("OCR %s passes=%d length=%d snippet=%q", path, len(variants), len(aggregate), snippet(aggregate, 140))
	return aggregate, nil
}

func runPass(image, whitelist string) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()
	_ = client.SetLanguage("por")
	_ = client.SetWhitelist(whitelist)
	client.SetImage(image)
	text, err := client.Text()
	if err != nil {
		return "", err
	}
	return normalizeText(text), nil
}
