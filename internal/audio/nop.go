package audio

// Nop is a silent cue player.
type Nop struct{}

func (Nop) PlayCorrect() {}
func (Nop) PlayWrong()   {}
