package domain

// Reading 是一次检索得到的当日 Hukamnama（对外 JSON 的 data 字段）。
//
// 约束：
// - 每次请求新建，构造完成后不再修改；不跨请求共享、不落库
// - Gurmukhi / English 在离开 fallback 之前必须满足长度阈值
// - JSON 字段名与前端既有契约保持一致（不要随意改名）
type Reading struct {
	Date           string `json:"date"`
	DateNanakshahi string `json:"dateNanakshahi"`
	Ang            string `json:"ang"`
	Raag           string `json:"raag"`

	Gurmukhi        string `json:"gurmukhi"`
	Transliteration string `json:"transliteration"`
	Punjabi         string `json:"punjabi"`
	English         string `json:"english"`

	AudioHukamnama string `json:"audioHukamnama,omitempty"`
	AudioKatha     string `json:"audioKatha,omitempty"`
	PDFLink        string `json:"pdfLink,omitempty"`

	Source string `json:"source"`
}

// FieldName 是 Locator 中可定位的字段名（同时也是配置文件 locators 的 key）。
type FieldName string

const (
	FieldDate            FieldName = "date"
	FieldDateNanakshahi  FieldName = "dateNanakshahi"
	FieldAng             FieldName = "ang"
	FieldRaag            FieldName = "raag"
	FieldGurmukhi        FieldName = "gurmukhi"
	FieldTransliteration FieldName = "transliteration"
	FieldPunjabi         FieldName = "punjabi"
	FieldEnglish         FieldName = "english"
	FieldAudioHukamnama  FieldName = "audioHukamnama"
	FieldAudioKatha      FieldName = "audioKatha"
	FieldPDFLink         FieldName = "pdfLink"
)

// Fields 按稳定顺序列出全部字段（日志、配置校验都依赖这个顺序）。
var Fields = []FieldName{
	FieldDate,
	FieldDateNanakshahi,
	FieldAng,
	FieldRaag,
	FieldGurmukhi,
	FieldTransliteration,
	FieldPunjabi,
	FieldEnglish,
	FieldAudioHukamnama,
	FieldAudioKatha,
	FieldPDFLink,
}

// IsURL 表示该字段的值需要按站点 origin 解析为绝对 URL。
func (f FieldName) IsURL() bool {
	switch f {
	case FieldAudioHukamnama, FieldAudioKatha, FieldPDFLink:
		return true
	default:
		return false
	}
}

// Valid 判断 f 是否是已知字段。
func (f FieldName) Valid() bool {
	for _, x := range Fields {
		if x == f {
			return true
		}
	}
	return false
}

// Field 是单个字段的定位结果：显式区分“没找到”和“找到了但为空”。
type Field struct {
	Value string
	Found bool
	Via   string // 命中的 selector（仅用于日志/排查）
}

// Extraction 是 Extractor 的输出：每个字段一个 Field。
// 缺失字段是常态，由 fallback 逐字段吸收，不视为错误。
type Extraction map[FieldName]Field

// Get 返回字段值；缺失时返回零值 Field。
func (e Extraction) Get(f FieldName) Field {
	if e == nil {
		return Field{}
	}
	return e[f]
}

// Missing 返回未找到的字段（按 Fields 顺序）。
func (e Extraction) Missing() []FieldName {
	out := make([]FieldName, 0, len(Fields))
	for _, f := range Fields {
		if !e.Get(f).Found {
			out = append(out, f)
		}
	}
	return out
}
