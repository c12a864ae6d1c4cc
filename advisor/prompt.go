package advisor

import (
	"fmt"
	"strings"
)

// MaxResponseLines is the ceiling on answer length given to the model
const MaxResponseLines = 28

// SectionTitles are the six mandatory answer sections, in order
var SectionTitles = [6]string{
	"Entendimento da crise",
	"Direcionamento",
	"Fundamento",
	"Três passos práticos para hoje",
	"Oração guiada",
	"Afirmação final",
}

type modeWording struct {
	foundation string
	practice   string
	practiceFn string
}

var wording = map[Mode]modeWording{
	ModeBiblico: {
		foundation: "cite de 1 a 3 referências bíblicas (livro, capítulo e versículo) ligadas à situação, com uma frase sobre cada uma.",
		practice:   "Oração guiada",
		practiceFn: "uma oração curta, em primeira pessoa, que a pessoa possa fazer agora.",
	},
	ModeNeutro: {
		foundation: "explique o princípio por trás do direcionamento sem linguagem religiosa, com base em bom senso e cuidado emocional.",
		practice:   "Respiração guiada",
		practiceFn: "um exercício de respiração curto, com contagem, que a pessoa possa fazer agora. Não use linguagem religiosa.",
	},
}

// BuildPrompt renders the persona instructions for req.Mode and wraps the
// message. The same request always yields the same prompt.
func BuildPrompt(req AdvisorRequest) Prompt {
	mode := ParseMode(string(req.Mode))
	w := wording[mode]

	var b strings.Builder
	b.WriteString("Você é o conselheiro da Hora Secreta: acolhedor, direto e sereno.\n")
	b.WriteString("A pessoa descreve uma crise pessoal. Responda em português do Brasil.\n\n")
	b.WriteString("Responda exatamente nestas seis seções, nesta ordem, com os títulos numerados:\n")
	fmt.Fprintf(&b, "1) **%s**: resuma em 2 frases o que a pessoa está vivendo.\n", SectionTitles[0])
	fmt.Fprintf(&b, "2) **%s**: uma orientação clara para o momento.\n", SectionTitles[1])
	fmt.Fprintf(&b, "3) **%s**: %s\n", SectionTitles[2], w.foundation)
	fmt.Fprintf(&b, "4) **%s**: três passos curtos e concretos, um por linha.\n", SectionTitles[3])
	fmt.Fprintf(&b, "5) **%s**: %s\n", w.practice, w.practiceFn)
	fmt.Fprintf(&b, "6) **%s**: uma única frase de encorajamento.\n\n", SectionTitles[5])
	b.WriteString("Regras:\n")
	fmt.Fprintf(&b, "- No máximo %d linhas no total.\n", MaxResponseLines)
	b.WriteString("- Não invente fatos, dados ou histórias sobre a pessoa.\n")
	b.WriteString("- Não prometa milagres, curas ou resultados garantidos.\n")
	b.WriteString("- Se houver risco à vida, recomende procurar ajuda imediata (CVV 188).\n")

	return Prompt{
		SystemInstructions: b.String(),
		UserContent:        "Modo: " + string(mode) + "\n\n" + req.Message,
	}
}
