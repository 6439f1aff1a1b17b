package storage

import "encoding/binary"

// Key prefixes mirror the schema in spec.md §6: big-endian u64 ids sort
// lexicographically the same as numerically.
var (
	prefixParticipant       = []byte("t:id:")
	prefixParticipantSkills = []byte("t:skill:")
	prefixSession           = []byte("s:")
	prefixMessage           = []byte("msg:")
	prefixAbilityCall       = []byte("acall:")
	prefixEvent             = []byte("ev:")
)

func be(id uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, id)
	return b
}

func withID(prefix []byte, id uint64) []byte {
	k := make([]byte, 0, len(prefix)+8)
	k = append(k, prefix...)
	k = append(k, be(id)...)
	return k
}

func ParticipantKey(id uint64) []byte       { return withID(prefixParticipant, id) }
func ParticipantSkillsKey(id uint64) []byte { return withID(prefixParticipantSkills, id) }
func SessionKey(key string) []byte          { return append(append([]byte{}, prefixSession...), key...) }
func MessageKey(id uint64) []byte           { return withID(prefixMessage, id) }
func AbilityCallKey(id uint64) []byte       { return withID(prefixAbilityCall, id) }
func EventKey(id uint64) []byte             { return withID(prefixEvent, id) }
