package advisor

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPrompt_Deterministic(t *testing.T) {
	req := AdvisorRequest{Message: "m", Mode: ModeBiblico}
	assert.Equal(t, BuildPrompt(req), BuildPrompt(req))
}

func TestBuildPrompt_SixSectionsInOrder(t *testing.T) {
	for _, mode := range []Mode{ModeBiblico, ModeNeutro} {
		t.Run(string(mode), func(t *testing.T) {
			p := BuildPrompt(AdvisorRequest{Message: "Perdi meu emprego e minha fé", Mode: mode})

			last := -1
			for i := 1; i <= 6; i++ {
				idx := strings.Index(p.SystemInstructions, fmt.Sprintf("%d) **", i))
				assert.Greater(t, idx, last, "section %d out of order", i)
				last = idx
			}
			assert.NotContains(t, p.SystemInstructions, "7) **")
			assert.Contains(t, p.SystemInstructions, fmt.Sprintf("No máximo %d linhas", MaxResponseLines))
			assert.Contains(t, p.SystemInstructions, "Não prometa milagres")
			assert.Contains(t, p.SystemInstructions, "Não invente fatos")
		})
	}
}

func TestBuildPrompt_ModeWording(t *testing.T) {
	biblico := BuildPrompt(AdvisorRequest{Message: "Estou perdido", Mode: ModeBiblico})
	neutro := BuildPrompt(AdvisorRequest{Message: "Estou perdido", Mode: ModeNeutro})

	assert.Contains(t, biblico.SystemInstructions, "referências bíblicas")
	assert.Contains(t, biblico.SystemInstructions, "Oração guiada")
	assert.NotContains(t, neutro.SystemInstructions, "bíblicas")
	assert.NotContains(t, neutro.SystemInstructions, "Oração")
	assert.Contains(t, neutro.SystemInstructions, "Respiração guiada")

	assert.Equal(t, "Modo: biblico\n\nEstou perdido", biblico.UserContent)
	assert.Equal(t, "Modo: neutro\n\nEstou perdido", neutro.UserContent)
}

func TestBuildPrompt_UnknownModeUsesDefault(t *testing.T) {
	unknown := BuildPrompt(AdvisorRequest{Message: "Estou perdido", Mode: Mode("zen")})
	def := BuildPrompt(AdvisorRequest{Message: "Estou perdido", Mode: DefaultMode})
	assert.Equal(t, def, unknown)
}

func TestParseMode(t *testing.T) {
	assert.Equal(t, ModeNeutro, ParseMode("Neutro"))
	assert.Equal(t, ModeBiblico, ParseMode(""))
	assert.Equal(t, ModeBiblico, ParseMode("biblical"))
}
