package greet

// Greeter greets users in some language.
type Greeter interface {
	Greet(name string) string
}

// Clock tells the time.
type Clock interface {
	Now() int64
}

//weld:contributes-binding scope=App boundType=greet.Greeter replaces=greet.LegacyGreeter
type EnglishGreeter struct {
	Greeter
}

//weld:inject
func NewEnglishGreeter(clock Clock) *EnglishGreeter {
	_ = clock
	return &EnglishGreeter{}
}

//weld:contributes-to App
type GreeterModule struct{}

//weld:merge-component scope=App excludes=greet.DebugModule
type AppComponent interface {
	Greeter
}
