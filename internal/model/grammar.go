package model

// GrammarLevel JLPT 等级
type GrammarLevel string

const (
	LevelN5 GrammarLevel = "N5"
	LevelN4 GrammarLevel = "N4"
	LevelN3 GrammarLevel = "N3"
	LevelN2 GrammarLevel = "N2"
	LevelN1 GrammarLevel = "N1"
)

// Example 例句（日文 + 中文翻译）
type Example struct {
	JA string `json:"ja" yaml:"ja"`
	ZH string `json:"zh" yaml:"zh"`
}

// GrammarPoint 语法点，启动时若表为空则写入种子数据，之后只读
type GrammarPoint struct {
	ID        string       `gorm:"primaryKey;type:varchar(64)" json:"id" yaml:"id"`
	Level     GrammarLevel `gorm:"type:varchar(8);index" json:"level" yaml:"level"`
	Title     string       `gorm:"size:255;not null" json:"title" yaml:"title"`
	Structure string       `gorm:"size:255" json:"structure" yaml:"structure"`
	Usage     string       `gorm:"type:text" json:"usage" yaml:"usage"`
	Examples  []Example    `gorm:"type:json;serializer:json" json:"examples" yaml:"examples"`
	Themes    []string     `gorm:"type:json;serializer:json" json:"themes" yaml:"themes"`
}

func (GrammarPoint) TableName() string {
	return "grammar_points"
}

// HasTheme 判断语法点是否带有指定主题标签
func (g *GrammarPoint) HasTheme(theme string) bool {
	for _, t := range g.Themes {
		if t == theme {
			return true
		}
	}
	return false
}
