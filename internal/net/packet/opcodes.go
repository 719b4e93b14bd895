package packet

// Server opcodes for the packets the map core builds.
const (
	S_OPCODE_OBJECT_CREATE  byte = 0x01 // guid, kind, x, y, z, o
	S_OPCODE_OBJECT_DESTROY byte = 0x02 // guid
	S_OPCODE_OBJECT_UPDATE  byte = 0x03 // count, then guid, x, y, z, o per object
	S_OPCODE_MESSAGE        byte = 0x04 // caller supplied payload
	S_OPCODE_SYSTEM_TEXT    byte = 0x05 // string
)
