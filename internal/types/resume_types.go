package types

// ExperienceLevel 表示简历的资历等级
type ExperienceLevel string

const (
	// ExperienceSenior 资深
	ExperienceSenior ExperienceLevel = "Senior"
	// ExperienceEntryLevel 初级（默认值）
	ExperienceEntryLevel ExperienceLevel = "Entry Level"
)

// 通用词性标签 (Universal POS)，仅列出抽取器需要的几个
const (
	POSVerb  = "VERB"
	POSNoun  = "NOUN"
	POSPropn = "PROPN"
	POSAdj   = "ADJ"
	POSAdv   = "ADV"
	POSNum   = "NUM"
	POSPunct = "PUNCT"
	POSOther = "X"
)

// 命名实体标签
const (
	EntityPerson = "PERSON"
	EntityOrg    = "ORG"
	EntityGPE    = "GPE"
)

// Token 分词结果中的单个词元
type Token struct {
	Text  string `json:"text"`  // 原文
	Lemma string `json:"lemma"` // 词元（词典原形），如 managed -> manage
	POS   string `json:"pos"`   // 通用词性，如 VERB
	Tag   string `json:"tag"`   // 细粒度词性 (Penn Treebank)，如 VBD
}

// Entity 命名实体
type Entity struct {
	Label string `json:"label"` // PERSON / ORG / GPE ...
	Text  string `json:"text"`  // 实体在原文中的文本
}

// AnnotatedDocument NLP 处理后的简历文档，单次请求内有效
type AnnotatedDocument struct {
	Text     string   `json:"text"`
	Tokens   []Token  `json:"tokens"`
	Entities []Entity `json:"entities"` // 文档顺序
}

// EntitiesByLabel 按文档顺序返回指定标签的实体
func (d *AnnotatedDocument) EntitiesByLabel(label string) []Entity {
	if d == nil {
		return nil
	}
	var out []Entity
	for _, ent := range d.Entities {
		if ent.Label == label {
			out = append(out, ent)
		}
	}
	return out
}

// 简历记录在存储中的字段名，与历史文档保持一致
const (
	FieldFirstName       = "First Name"
	FieldLastName        = "Last Name"
	FieldEmail           = "Email"
	FieldPhoneNumber     = "Phone Number"
	FieldEducation       = "Education"
	FieldExperienceLevel = "Experience Level"
	FieldSkills          = "Skills"
)

// ResumeRecord 抽取结果，组装后不再修改
type ResumeRecord struct {
	FirstName       string          `json:"First Name" firestore:"First Name"`
	LastName        string          `json:"Last Name" firestore:"Last Name"`
	Email           string          `json:"Email" firestore:"Email"`
	PhoneNumber     string          `json:"Phone Number" firestore:"Phone Number"`
	Education       []string        `json:"Education" firestore:"Education"`
	ExperienceLevel ExperienceLevel `json:"Experience Level" firestore:"Experience Level"`
	Skills          []string        `json:"Skills" firestore:"Skills"`
}

// ToMap 转换为扁平的字段映射，写入文档存储时使用
// 切片字段总是非nil，保证序列化结果为 [] 而不是 null
func (r *ResumeRecord) ToMap() map[string]interface{} {
	return map[string]interface{}{
		FieldFirstName:       r.FirstName,
		FieldLastName:        r.LastName,
		FieldEmail:           r.Email,
		FieldPhoneNumber:     r.PhoneNumber,
		FieldEducation:       nonNil(r.Education),
		FieldExperienceLevel: string(r.ExperienceLevel),
		FieldSkills:          nonNil(r.Skills),
	}
}

// nonNil 复制切片，nil 时返回空切片
func nonNil(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
