package entity

import "strings"

// WordFamilyMember is an inflectional or derivational relative of a
// vocabulary word, together with its part of speech.
type WordFamilyMember struct {
	Word string `json:"word"`
	Pos  string `json:"pos"`
}

// Phonetic is an IPA transcription, optionally tagged with an accent.
type Phonetic struct {
	IPA    string `json:"ipa"`
	Accent string `json:"accent,omitempty"`
}

// VocabularyItem is a single immutable dictionary entry loaded from static
// topic content. Each item carries exactly three example sentences.
type VocabularyItem struct {
	ID           string             `json:"id"`
	Word         string             `json:"word"`
	Phonetic     string             `json:"phonetic"`
	Phonetics    []Phonetic         `json:"phonetics,omitempty"`
	Pos          string             `json:"pos"`
	DefinitionEN string             `json:"definition_en"`
	DefinitionVI string             `json:"definition_vi"`
	Examples     []string           `json:"examples"`
	Collocations []string           `json:"collocations,omitempty"`
	Synonyms     []string           `json:"synonyms,omitempty"`
	Antonyms     []string           `json:"antonyms,omitempty"`
	WordFamily   []WordFamilyMember `json:"word_family,omitempty"`
}

// Topic is an ordered, read-only collection of vocabulary items.
type Topic struct {
	ID    string           `json:"id"`
	Name  string           `json:"name"`
	Items []VocabularyItem `json:"items"`
}

// FamilyWords returns the plain word forms of the item's word family.
func (v *VocabularyItem) FamilyWords() []string {
	words := make([]string, 0, len(v.WordFamily))
	for _, m := range v.WordFamily {
		if w := strings.TrimSpace(m.Word); w != "" {
			words = append(words, w)
		}
	}
	return words
}
