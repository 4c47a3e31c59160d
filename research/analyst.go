package research

import "fmt"

// Analyst is a persona that interviews the expert on one theme.
type Analyst struct {
	Affiliation string `json:"affiliation" jsonschema_description:"Primary affiliation of the analyst."`
	Name        string `json:"name" jsonschema_description:"Name of the analyst."`
	Role        string `json:"role" jsonschema_description:"Role of the analyst in the context of the topic."`
	Description string `json:"description" jsonschema_description:"Description of the analyst focus, concerns, and motives."`
}

// Persona renders the analyst for use inside prompts.
func (a Analyst) Persona() string {
	return fmt.Sprintf("Name: %s\nRole: %s\nAffiliation: %s\nDescription: %s\n",
		a.Name, a.Role, a.Affiliation, a.Description)
}

// Perspectives is the structured response of analyst generation.
type Perspectives struct {
	Analysts []Analyst `json:"analysts" jsonschema_description:"Comprehensive list of analysts with their roles and affiliations."`
}

// SearchQuery is the structured response of query generation.
type SearchQuery struct {
	SearchQuery string `json:"search_query" jsonschema_description:"Search query for retrieval."`
}
