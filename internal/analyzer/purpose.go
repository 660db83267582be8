package analyzer

import (
	"regexp"
	"strings"

	"github.com/sweta-tw/superfill.ai/internal/types"
)

var autocompletePurposes = map[string]types.Purpose{
	"name":               types.PurposeName,
	"given-name":         types.PurposeName,
	"additional-name":    types.PurposeName,
	"family-name":        types.PurposeName,
	"nickname":           types.PurposeName,
	"honorific-prefix":   types.PurposeName,
	"honorific-suffix":   types.PurposeName,
	"email":              types.PurposeEmail,
	"tel":                types.PurposePhone,
	"tel-national":       types.PurposePhone,
	"tel-local":          types.PurposePhone,
	"street-address":     types.PurposeAddress,
	"address-line1":      types.PurposeAddress,
	"address-line2":      types.PurposeAddress,
	"address-line3":      types.PurposeAddress,
	"address-level2":     types.PurposeCity,
	"address-level1":     types.PurposeState,
	"postal-code":        types.PurposeZip,
	"country":            types.PurposeCountry,
	"country-name":       types.PurposeCountry,
	"organization":       types.PurposeCompany,
	"organization-title": types.PurposeTitle,
}

type purposePattern struct {
	purpose types.Purpose
	re      *regexp.Regexp
}

// Tested in order against " | "-joined lowercase text; first match wins.
var purposePatterns = []purposePattern{
	{types.PurposeEmail, regexp.MustCompile(`e-?mail`)},
	{types.PurposePhone, regexp.MustCompile(`phone|mobile|telephone|\btel\b|\bcell\b`)},
	{types.PurposeName, regexp.MustCompile(`(first|last|full|given|family|middle|your)[\s_-]?name|surname|\b[fl]name\b|(^|\| )name($| \|)`)},
	{types.PurposeAddress, regexp.MustCompile(`address|street|\baddr\b`)},
	{types.PurposeCity, regexp.MustCompile(`city|town|locality`)},
	{types.PurposeState, regexp.MustCompile(`\bstate\b|province|region|county`)},
	{types.PurposeZip, regexp.MustCompile(`zip|postal|post[\s_-]?code`)},
	{types.PurposeCountry, regexp.MustCompile(`country|nation`)},
	{types.PurposeCompany, regexp.MustCompile(`company|organi[sz]ation|employer|business|\borg\b`)},
	{types.PurposeTitle, regexp.MustCompile(`job[\s_-]?title|\btitle\b|position|designation`)},
}

// InferPurpose infers a field's purpose from its declared type, then its
// autocomplete tokens, then keyword patterns over texts.
func InferPurpose(ft types.FieldType, autocomplete string, texts ...string) types.Purpose {
	switch ft {
	case types.FieldEmail:
		return types.PurposeEmail
	case types.FieldTel:
		return types.PurposePhone
	}

	for _, tok := range strings.Fields(strings.ToLower(autocomplete)) {
		if p, ok := autocompletePurposes[tok]; ok {
			return p
		}
	}

	var parts []string
	for _, t := range texts {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			parts = append(parts, t)
		}
	}
	if len(parts) == 0 {
		return types.PurposeUnknown
	}
	joined := strings.Join(parts, " | ")
	for _, p := range purposePatterns {
		if p.re.MatchString(joined) {
			return p.purpose
		}
	}
	return types.PurposeUnknown
}
