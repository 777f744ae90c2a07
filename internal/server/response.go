package server

import "fmt"

const Prompt = "veeprom> "

type Msg string

const (
	OK     Msg = "OK"
	NoAuth Msg = "Not authenticated"
	NoPerm Msg = "Permission denied"
)

type Response struct {
	Msg   Msg
	Close bool
}

func Respond(m Msg) Response {
	return Response{Msg: m}
}

func Respondf(format string, args ...any) Response {
	return Response{Msg: Msg(fmt.Sprintf(format, args...))}
}

func Err(m Msg) Response {
	return Response{Msg: "ERR: " + m}
}

func Usage(u string) Response {
	return Response{Msg: Msg("ERR: Usage " + u)}
}
