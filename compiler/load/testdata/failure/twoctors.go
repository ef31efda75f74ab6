package broken

type Service struct{}

//weld:inject
func NewService() *Service {
	return &Service{}
}

//weld:assisted-inject
func NewServiceWithName(name string) *Service {
	_ = name
	return &Service{}
}
