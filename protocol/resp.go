package protocol

import (
	"strconv"
)

// RESPEncoder writes commands as RESP arrays of bulk strings:
//
//	*<argc>\r\n then $<len>\r\n<arg>\r\n for every argument
//
// Lengths are byte lengths, so arguments may hold any bytes, including CR and LF.
type RESPEncoder struct{}

func (RESPEncoder) Encode(op Operation) []byte {
	if op.Kind == OpWrite {
		return EncodeCommand("SET", op.Key, op.Value)
	}
	return EncodeCommand("GET", op.Key)
}

// EncodeCommand frames an arbitrary command.
func EncodeCommand(args ...string) []byte {
	size := 1 + len(strconv.Itoa(len(args))) + 2
	for _, a := range args {
		size += 1 + len(strconv.Itoa(len(a))) + 2 + len(a) + 2
	}

	buf := make([]byte, 0, size)
	buf = append(buf, '*')
	buf = strconv.AppendInt(buf, int64(len(args)), 10)
	buf = append(buf, '\r', '\n')
	for _, a := range args {
		buf = append(buf, '$')
		buf = strconv.AppendInt(buf, int64(len(a)), 10)
		buf = append(buf, '\r', '\n')
		buf = append(buf, a...)
		buf = append(buf, '\r', '\n')
	}
	return buf
}
