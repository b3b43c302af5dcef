package sequence

// Counter is a named monotonic sequence.
type Counter struct {
	Name string `gorm:"primaryKey;column:name"`
	Seq  int64  `gorm:"not null;default:0;column:seq"`
}

func (Counter) TableName() string { return "counter" }

// TestRequestCounter numbers test requests.
const TestRequestCounter = "materialTestCounter"
