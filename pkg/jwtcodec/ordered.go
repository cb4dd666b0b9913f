package jwtcodec

import (
	"bytes"
	"encoding/json"
)

// kv is one entry of an orderedObject.
type kv struct {
	Key   string
	Value any
}

// orderedObject marshals to a JSON object with its keys emitted in
// insertion order and no insignificant whitespace — the DAG-JSON
// convention the canonical JWT payload (spec §6.1) and canonical
// capability objects require.
type orderedObject []kv

func (o orderedObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(p.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')
		valBytes, err := json.Marshal(p.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(valBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
