package mocks

//go:generate go run go.uber.org/mock/mockgen -destination=backend_mock.go -package=mocks github.com/xdg/termrelay/internal/backend Backend,Handle
