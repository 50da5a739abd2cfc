package crossref

// workTypeQIDs maps Crossref work types to Wikidata classes.
var workTypeQIDs = map[string]string{
	"journal-article":     "Q13442814", // scholarly article
	"proceedings-article": "Q23927052", // conference paper
	"book-chapter":        "Q1980247",  // chapter
	"book":                "Q47461344", // written work
	"monograph":           "Q47461344",
	"edited-book":         "Q47461344",
	"reference-book":      "Q47461344",
	"dataset":             "Q1172284", // data set
	"posted-content":      "Q580922",  // preprint
	"dissertation":        "Q1266946", // thesis
	"report":              "Q10870555",
}

// scholarlyArticleQID is the fallback class for unmapped work types.
const scholarlyArticleQID = "Q13442814"

// WorkTypeQID maps a Crossref work type to its Wikidata class, defaulting to
// scholarly article.
func WorkTypeQID(workType string) string {
	if qid, ok := workTypeQIDs[workType]; ok {
		return qid
	}
	return scholarlyArticleQID
}

// languageQIDs maps canonical BCP 47 base tags to Wikidata language items.
// Covers the languages that appear in the LOTUS literature corpus; unmapped
// tags simply omit the language statement.
var languageQIDs = map[string]string{
	"en": "Q1860",
	"fr": "Q150",
	"de": "Q188",
	"es": "Q1321",
	"pt": "Q5146",
	"it": "Q652",
	"nl": "Q7411",
	"ja": "Q5287",
	"zh": "Q7850",
	"ru": "Q7737",
	"pl": "Q809",
	"ko": "Q9176",
	"tr": "Q256",
	"sv": "Q9027",
	"da": "Q9035",
	"no": "Q9043",
	"fi": "Q1412",
	"cs": "Q9056",
	"hu": "Q9067",
	"la": "Q397",
}

// LanguageQID maps a canonical language tag to its Wikidata item, or ""
// when unknown.
func LanguageQID(tag string) string {
	return languageQIDs[tag]
}
