package cache

type accessMode uint8

const (
	accessRead accessMode = 1 << iota
	accessWrite
	accessExec
)
