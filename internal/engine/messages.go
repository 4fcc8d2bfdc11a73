package engine

import "math/rand/v2"

var levelUpMessages = map[int][]string{
	2: {
		"Você pegou o ritmo!",
		"Primeiro degrau vencido, continue assim.",
	},
	3: {
		"A constância está virando hábito.",
		"Seu esforço está aparecendo.",
	},
	5: {
		"Metade do caminho para a maestria!",
		"Foco total, você está voando.",
	},
	10: {
		"Mestre da produtividade!",
		"Poucos chegam aqui. Parabéns!",
	},
}

var defaultLevelUpMessages = []string{
	"Subiu de nível! Continue assim.",
	"Mais um nível conquistado!",
	"Seu progresso é inspirador.",
	"Nada te segura agora.",
}

// LevelUpMessage picks a motivational line for reaching level. The closest
// bucket at or below level is used.
func LevelUpMessage(level int, rng *rand.Rand) string {
	msgs := defaultLevelUpMessages
	best := 0
	for l, m := range levelUpMessages {
		if l <= level && l > best {
			best, msgs = l, m
		}
	}
	if rng == nil {
		return msgs[rand.IntN(len(msgs))]
	}
	return msgs[rng.IntN(len(msgs))]
}
