package conn

// Message codes for the GridStore wire protocol. Every frame is a
// 4-byte big-endian length (covering code and payload), one code byte,
// then the payload.
const (
	MsgPing     byte = 0x01
	MsgPingResp byte = 0x02
	MsgGet      byte = 0x03
	MsgGetResp  byte = 0x04
	MsgPut      byte = 0x05
	MsgPutResp  byte = 0x06
	MsgDel      byte = 0x07
	MsgDelResp  byte = 0x08
	MsgScan     byte = 0x09
	MsgScanResp byte = 0x0A
	MsgScanEnd  byte = 0x0B
	MsgErr      byte = 0xFF
)

const (
	// maxFrameSize bounds a single frame (code + payload).
	maxFrameSize = 16 << 20

	frameHeaderSize = 4
)
