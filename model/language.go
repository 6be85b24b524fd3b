package model

import "strings"

// Language 提交语言, 封闭枚举, 未枚举的语言一律拒绝
type Language string

const (
	LanguageCpp        Language = "c++"
	LanguageJava       Language = "java"
	LanguageJavascript Language = "javascript"
)

// languageJudge0IDs 语言到 Judge0 language_id 的完备映射
var languageJudge0IDs = map[Language]int{
	LanguageCpp:        54, // C++ (GCC 9.2.0)
	LanguageJava:       62, // Java (OpenJDK 13.0.1)
	LanguageJavascript: 63, // JavaScript (Node.js 12.14.0)
}

// Judge0ID 返回语言对应的 Judge0 language_id, 不支持的语言返回 false
func (l Language) Judge0ID() (int, bool) {
	id, ok := languageJudge0IDs[Language(strings.ToLower(string(l)))]
	return id, ok
}

// Supported 语言是否受支持
func (l Language) Supported() bool {
	_, ok := l.Judge0ID()
	return ok
}

// SupportedLanguages 返回所有受支持的语言
func SupportedLanguages() []Language {
	return []Language{LanguageCpp, LanguageJava, LanguageJavascript}
}
