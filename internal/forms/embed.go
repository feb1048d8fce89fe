// Package forms holds the court form templates compiled into the binary.
package forms

import (
	_ "embed"
	"fmt"
	"os"
)

// AffidavitOfServiceName is the file name of the embedded Form 11 template.
const AffidavitOfServiceName = "Form_11_-_Affidavit_of_Service.docx"

//go:embed Form_11_-_Affidavit_of_Service.docx
var affidavitOfService []byte

// AffidavitOfService returns a copy of the embedded Form 11 template.
func AffidavitOfService() []byte {
	return append([]byte(nil), affidavitOfService...)
}

// Load returns the template at path, or the embedded Form 11 when path is empty.
func Load(path string) ([]byte, error) {
	if path == "" {
		return AffidavitOfService(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load template %s: %w", path, err)
	}
	return data, nil
}
