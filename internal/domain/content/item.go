package content

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Kind string

const (
	KindPost    Kind = "post"
	KindNote    Kind = "note"
	KindProject Kind = "project"
)

func ParseKind(raw string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(raw))); k {
	case KindPost, KindNote, KindProject:
		return k, nil
	default:
		return "", fmt.Errorf("unknown content kind %q", raw)
	}
}

// Field names an enrichment or review column on Item. Values double as column names.
type Field string

const (
	FieldSummary         Field = "summary"
	FieldStudyChunks     Field = "study_chunks"
	FieldMnemonics       Field = "mnemonics"
	FieldRecallQuestions Field = "recall_questions"
)

// Item is a Post, Note, or Project as seen by the retention engine.
// Title and Body belong to the CMS; the remaining columns are written by enrichment and review.
type Item struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Kind  Kind      `gorm:"column:kind;not null;index" json:"kind"`
	Title string    `gorm:"column:title;not null" json:"title"`
	Body  string    `gorm:"column:body;type:text;not null" json:"body"`

	// NULL until enriched. Sequence fields hold a JSON array of strings.
	Summary         *string        `gorm:"column:summary;type:text" json:"summary"`
	StudyChunks     datatypes.JSON `gorm:"column:study_chunks" json:"study_chunks"`
	Mnemonics       datatypes.JSON `gorm:"column:mnemonics" json:"mnemonics"`
	RecallQuestions datatypes.JSON `gorm:"column:recall_questions" json:"recall_questions"`

	ReviewStage    int        `gorm:"column:review_stage;not null;default:1" json:"review_stage"`
	ReviewInterval int        `gorm:"column:review_interval;not null;default:1" json:"review_interval"` // days
	LastReviewedAt *time.Time `gorm:"column:last_reviewed_at;index" json:"last_reviewed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Item) TableName() string { return "content_item" }

func (it *Item) BeforeCreate(tx *gorm.DB) error {
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	if it.ReviewStage < 1 {
		it.ReviewStage = 1
	}
	if it.ReviewInterval < 1 {
		it.ReviewInterval = 1
	}
	return nil
}

// Enriched reports whether f has been computed (is non-NULL).
func (it *Item) Enriched(f Field) bool {
	if it == nil {
		return false
	}
	switch f {
	case FieldSummary:
		return it.Summary != nil
	case FieldStudyChunks:
		return len(it.StudyChunks) > 0
	case FieldMnemonics:
		return len(it.Mnemonics) > 0
	case FieldRecallQuestions:
		return len(it.RecallQuestions) > 0
	}
	return false
}

// Strings decodes a sequence field. A NULL field yields nil.
func (it *Item) Strings(f Field) ([]string, error) {
	var raw datatypes.JSON
	switch f {
	case FieldStudyChunks:
		raw = it.StudyChunks
	case FieldMnemonics:
		raw = it.Mnemonics
	case FieldRecallQuestions:
		raw = it.RecallQuestions
	default:
		return nil, fmt.Errorf("field %q is not a sequence", f)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f, err)
	}
	return out, nil
}

// SetStrings stores vals into a sequence field.
func (it *Item) SetStrings(f Field, vals []string) error {
	raw, err := EncodeStrings(vals)
	if err != nil {
		return err
	}
	switch f {
	case FieldStudyChunks:
		it.StudyChunks = raw
	case FieldMnemonics:
		it.Mnemonics = raw
	case FieldRecallQuestions:
		it.RecallQuestions = raw
	default:
		return fmt.Errorf("field %q is not a sequence", f)
	}
	return nil
}

// Assign sets f to a value as persisted by the repo layer: a string for FieldSummary,
// an encoded JSON array for sequence fields.
func (it *Item) Assign(f Field, value any) error {
	switch v := value.(type) {
	case string:
		if f != FieldSummary {
			return fmt.Errorf("field %q does not take text", f)
		}
		it.Summary = &v
		return nil
	case datatypes.JSON:
		switch f {
		case FieldStudyChunks:
			it.StudyChunks = v
		case FieldMnemonics:
			it.Mnemonics = v
		case FieldRecallQuestions:
			it.RecallQuestions = v
		default:
			return fmt.Errorf("field %q is not a sequence", f)
		}
		return nil
	}
	return fmt.Errorf("unsupported value %T for field %q", value, f)
}

func EncodeStrings(vals []string) (datatypes.JSON, error) {
	if vals == nil {
		vals = []string{}
	}
	raw, err := json.Marshal(vals)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

// ReviewState is the scheduler-owned slice of Item.
type ReviewState struct {
	Stage          int
	Interval       int
	LastReviewedAt *time.Time
}

func (it *Item) Review() ReviewState {
	return ReviewState{Stage: it.ReviewStage, Interval: it.ReviewInterval, LastReviewedAt: it.LastReviewedAt}
}

func (it *Item) ApplyReview(rs ReviewState) {
	it.ReviewStage = rs.Stage
	it.ReviewInterval = rs.Interval
	it.LastReviewedAt = rs.LastReviewedAt
}
