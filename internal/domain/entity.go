package domain

// EntityPerson is the only entity type the query pipeline keeps.
const EntityPerson = "PERSON"

// Entity is a named entity recognized in free text.
type Entity struct {
	Name       string
	Type       string
	Confidence float64 // 0-100
}

// IsPerson reports whether the entity is tagged as a person.
func (e Entity) IsPerson() bool { return e.Type == EntityPerson }
