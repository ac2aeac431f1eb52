package peppol

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"ledgerly-backend/internal/shared/util"
)

//go:embed schemes.yaml
var schemesYAML []byte

var schemesByCountry = mustParseSchemes()

func mustParseSchemes() map[string]string {
	var file struct {
		Schemes map[string]string `yaml:"schemes"`
	}
	if err := yaml.Unmarshal(schemesYAML, &file); err != nil {
		panic(fmt.Sprintf("peppol: parse schemes.yaml: %v", err))
	}
	out := make(map[string]string, len(file.Schemes))
	for country, scheme := range file.Schemes {
		out[strings.ToUpper(country)] = scheme
	}
	return out
}

// SchemeForCountry returns the EAS scheme used for participant identifiers
// in the given country.
func SchemeForCountry(countryCode string) (string, bool) {
	scheme, ok := schemesByCountry[strings.ToUpper(strings.TrimSpace(countryCode))]
	return scheme, ok
}

// ParticipantIDFor builds the Peppol participant identifier for a VAT
// number. Identifier values are case-insensitive on the network; lowercase
// is the conventional form.
func ParticipantIDFor(scheme, vatNumber string) string {
	return scheme + ":" + strings.ToLower(util.NormalizeVAT(vatNumber))
}
