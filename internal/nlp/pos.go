package nlp

import (
	"strings"

	"resume-parser-go/internal/types"
)

// pennToUniversal Penn Treebank 细粒度标签到通用词性的映射
var pennToUniversal = map[string]string{
	"VB":   types.POSVerb,
	"VBD":  types.POSVerb,
	"VBG":  types.POSVerb,
	"VBN":  types.POSVerb,
	"VBP":  types.POSVerb,
	"VBZ":  types.POSVerb,
	"MD":   "AUX",
	"NN":   types.POSNoun,
	"NNS":  types.POSNoun,
	"NNP":  types.POSPropn,
	"NNPS": types.POSPropn,
	"JJ":   types.POSAdj,
	"JJR":  types.POSAdj,
	"JJS":  types.POSAdj,
	"RB":   types.POSAdv,
	"RBR":  types.POSAdv,
	"RBS":  types.POSAdv,
	"WRB":  types.POSAdv,
	"CD":   types.POSNum,
	"PRP":  "PRON",
	"PRP$": "PRON",
	"WP":   "PRON",
	"WP$":  "PRON",
	"DT":   "DET",
	"PDT":  "DET",
	"WDT":  "DET",
	"IN":   "ADP",
	"CC":   "CCONJ",
	"TO":   "PART",
	"RP":   "PART",
	"POS":  "PART",
	"UH":   "INTJ",
	"EX":   "PRON",
	"SYM":  "SYM",
	"$":    "SYM",
	"#":    "SYM",
	".":    types.POSPunct,
	",":    types.POSPunct,
	":":    types.POSPunct,
	"(":    types.POSPunct,
	")":    types.POSPunct,
	"``":   types.POSPunct,
	"''":   types.POSPunct,

	"-LRB-": types.POSPunct,
	"-RRB-": types.POSPunct,
}

// UniversalPOS 将 Penn Treebank 标签转换为通用词性，未知标签返回 X
func UniversalPOS(tag string) string {
	if pos, ok := pennToUniversal[strings.ToUpper(tag)]; ok {
		return pos
	}
	return types.POSOther
}
