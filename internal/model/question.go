package model

// TeamAssignment tags which team plays a question
type TeamAssignment string

const (
	AssignTeam1  TeamAssignment = "team1"
	AssignTeam2  TeamAssignment = "team2"
	AssignShared TeamAssignment = "shared" // Toss-up and lightning
)

// Answer is one ranked reference answer ("card")
type Answer struct {
	Answer   string `json:"answer" bson:"answer" yaml:"answer"`
	Score    int    `json:"score" bson:"score" yaml:"score"`
	Revealed bool   `json:"revealed" bson:"-" yaml:"-"` // Only field mutated after creation
}

// Question is a prepared survey question with ranked answers
type Question struct {
	ID             string         `json:"_id" bson:"_id" yaml:"id"`
	Round          int            `json:"round" bson:"round" yaml:"round"`
	TeamAssignment TeamAssignment `json:"teamAssignment" bson:"teamAssignment" yaml:"teamAssignment"`
	QuestionNumber int            `json:"questionNumber" bson:"questionNumber" yaml:"questionNumber"`
	Question       string         `json:"question" bson:"question" yaml:"question"`
	Answers        []Answer       `json:"answers" bson:"answers" yaml:"answers"`
}

// Clone deep-copies the question
func (q *Question) Clone() *Question {
	if q == nil {
		return nil
	}
	cp := *q
	cp.Answers = append([]Answer(nil), q.Answers...)
	return &cp
}

// AllRevealed reports whether every card is showing
func (q *Question) AllRevealed() bool {
	for _, a := range q.Answers {
		if !a.Revealed {
			return false
		}
	}
	return true
}

// QuestionSet is the unit handed over by the question-preparation collaborator
type QuestionSet struct {
	ID        string     `json:"_id" bson:"_id" yaml:"id"`
	Name      string     `json:"name" bson:"name" yaml:"name"`
	TossUp    *Question  `json:"tossUp,omitempty" bson:"tossUp,omitempty" yaml:"tossUp"`
	Questions []Question `json:"questions" bson:"questions" yaml:"questions"`
}
