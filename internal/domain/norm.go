package domain

// NormRule is one clause of a normative corpus. It is read-only during generation.
type NormRule struct {
	ID       string   `json:"id" yaml:"id"`
	Titre    string   `json:"titre" yaml:"titre"`
	Article  string   `json:"article" yaml:"article"`
	Content  string   `json:"content" yaml:"content"`
	Page     int      `json:"page" yaml:"page"`
	NormID   string   `json:"normId,omitempty" yaml:"normId,omitempty"`
	Category string   `json:"category,omitempty" yaml:"category,omitempty"`
	Keywords []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
}

// SommaireNode is a table-of-contents entry. Children always sit at a deeper level.
type SommaireNode struct {
	Index    string         `json:"index" yaml:"index"`
	Label    string         `json:"label" yaml:"label"`
	Level    int            `json:"level" yaml:"level"`
	Children []SommaireNode `json:"children,omitempty" yaml:"children,omitempty"`
}

// NormCorpus is one loaded norm: its rules in corpus order and its sommaire.
type NormCorpus struct {
	NormID   string         `json:"normId" yaml:"normId"`
	Title    string         `json:"title" yaml:"title"`
	Rules    []NormRule     `json:"rules" yaml:"rules"`
	Sommaire []SommaireNode `json:"sommaire" yaml:"sommaire"`
}
