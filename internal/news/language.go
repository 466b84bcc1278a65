package news

// langMap translates the ISO 639-1 codes stored on user profiles into
// the provider's three-letter codes.
var langMap = map[string]string{
	"en": "eng",
	"es": "spa",
	"fr": "fra",
	"it": "ita",
	"pt": "por",
	"ru": "rus",
	"ar": "ara",
	"zh": "zho",
	"ja": "jpn",
	"ko": "kor",
	"hi": "hin",
	"ta": "tam",
}

// LanguageCode maps an ISO 639-1 code to the provider's format.
// Unknown or empty codes fall back to English.
func LanguageCode(iso string) string {
	if code, ok := langMap[iso]; ok {
		return code
	}
	return "eng"
}
