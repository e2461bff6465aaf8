package model

type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

func (l Level) Valid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

type ContentType string

const (
	ContentArticle     ContentType = "article"
	ContentVideo       ContentType = "video"
	ContentQuiz        ContentType = "quiz"
	ContentInteractive ContentType = "interactive"
)

func (t ContentType) Valid() bool {
	switch t {
	case ContentArticle, ContentVideo, ContentQuiz, ContentInteractive:
		return true
	}
	return false
}

type Course struct {
	UUIDBase
	Title             string   `gorm:"size:255;not null" json:"title"`
	Description       string   `gorm:"type:text" json:"description"`
	Topic             string   `gorm:"size:255;not null" json:"topic"`
	Level             Level    `gorm:"size:20;not null" json:"level"`
	EstimatedDuration string   `gorm:"size:64" json:"estimatedDuration"`
	IsPublished       bool     `gorm:"default:true" json:"isPublished"`
	CreatedBy         uint     `gorm:"index" json:"createdBy"`
	Modules           []Module `gorm:"foreignKey:CourseID" json:"modules,omitempty"`
}

func (Course) TableName() string {
	return "courses"
}

type Module struct {
	UUIDBase
	CourseID    string   `gorm:"type:varchar(36);index;not null" json:"courseId"`
	Title       string   `gorm:"size:255;not null" json:"title"`
	Description string   `gorm:"type:text" json:"description"`
	OrderIndex  int      `gorm:"not null;default:0" json:"orderIndex"`
	Lessons     []Lesson `gorm:"foreignKey:ModuleID" json:"lessons,omitempty"`
	Course      *Course  `gorm:"foreignKey:CourseID" json:"-"`
}

func (Module) TableName() string {
	return "course_modules"
}

// Lesson.ContentMarkdown stays nil until the first resolve; IsGenerated marks the cached state.
type Lesson struct {
	UUIDBase
	ModuleID        string      `gorm:"type:varchar(36);index;not null" json:"moduleId"`
	Title           string      `gorm:"size:255;not null" json:"title"`
	ContentType     ContentType `gorm:"size:20;not null;default:'article'" json:"contentType"`
	DurationMinutes int         `gorm:"not null;default:10" json:"durationMinutes"`
	OrderIndex      int         `gorm:"not null;default:0" json:"orderIndex"`
	ContentMarkdown *string     `gorm:"type:text" json:"contentMarkdown,omitempty"`
	IsGenerated     bool        `gorm:"not null;default:false" json:"isGenerated"`
	Module          *Module     `gorm:"foreignKey:ModuleID" json:"-"`
}

func (Lesson) TableName() string {
	return "lessons"
}
