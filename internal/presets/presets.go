// Package presets registers the built-in complexity profiles. Each preset
// turns up one axis of difficulty; mix turns up all of them.
package presets

import (
	"github.com/voicetyped/simdial/internal/registry"
	"github.com/voicetyped/simdial/pkg/complexity"
)

func init() {
	register("clean", func(p *complexity.Profile) {})

	register("env", func(p *complexity.Profile) {
		p.Environment.Noise = 0.3
		p.Environment.WordNoise = 0.05
	})

	register("prop", func(p *complexity.Profile) {
		p.Proposition.YNQuestion = 0.4
		p.Proposition.DontCare = 0.1
		p.Proposition.RejectInform = 0.5
		p.Proposition.MultiSlot = true
		p.Proposition.GroupSize = 2
		p.Proposition.NewSearch = 0.2
		p.Proposition.MoreRequest = 0.3
		p.Proposition.MaxGoals = 2
	})

	register("interact", func(p *complexity.Profile) {
		p.Environment.Noise = 0.1
		p.Interaction.SelfCorrect = 0.2
		p.Interaction.Hesitation = 0.3
		p.Interaction.Confirmation.Mode = complexity.ConfirmMixed
	})

	register("social", func(p *complexity.Profile) {
		p.Social.ChitChat = 0.2
	})

	register("mix", func(p *complexity.Profile) {
		p.Environment.Noise = 0.3
		p.Environment.WordNoise = 0.05
		p.Proposition.YNQuestion = 0.4
		p.Proposition.DontCare = 0.1
		p.Proposition.RejectInform = 0.5
		p.Proposition.MultiSlot = true
		p.Proposition.GroupSize = 2
		p.Proposition.NewSearch = 0.2
		p.Proposition.MoreRequest = 0.3
		p.Proposition.MaxGoals = 2
		p.Interaction.SelfCorrect = 0.2
		p.Interaction.Hesitation = 0.3
		p.Interaction.Confirmation.Mode = complexity.ConfirmMixed
		p.Social.ChitChat = 0.2
	})
}

func register(name string, tune func(p *complexity.Profile)) {
	registry.Profiles.Register(name, func(config map[string]string) (*complexity.Profile, error) {
		p := complexity.Default()
		p.Name = name
		tune(&p)
		if err := p.Override(config); err != nil {
			return nil, err
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		return &p, nil
	})
}
