// snapshot.go - JSON-serializable runtime snapshot

package main

import (
	"encoding/json"
	"fmt"
)

type SnapshotScalar struct {
	Type  string `json:"type"` // "number" or "string"
	Value any    `json:"value"`
}

type SnapshotArray struct {
	Kind       string `json:"kind"` // "number" or "string"
	Dimensions []int  `json:"dimensions"`
	Data       []any  `json:"data"`
	Length     int    `json:"length,omitempty"`
}

// snapLine marshals as the [line, source] pair form.
type snapLine struct {
	Line   int
	Source string
}

func (l snapLine) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{l.Line, l.Source})
}

func (l *snapLine) UnmarshalJSON(data []byte) error {
	var pair [2]json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if err := json.Unmarshal(pair[0], &l.Line); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &l.Source)
}

type SnapshotInput struct {
	Prompt   string   `json:"prompt"`
	Targets  []string `json:"targets"`
	ResumePC int      `json:"resumePc"`
}

type MachineSnapshot struct {
	Output       []byte                    `json:"output"`
	InputBuffer  string                    `json:"inputBuffer"`
	Variables    map[string]SnapshotScalar `json:"variables"`
	Arrays       map[string]SnapshotArray  `json:"arrays"`
	Program      []snapLine                `json:"program"`
	WaitingInput *SnapshotInput            `json:"waitingInput,omitempty"`
	Profile      string                    `json:"profile"`
}

// GetSnapshot captures the runtime-visible state of the monitor.
func (m *Machine) GetSnapshot() *MachineSnapshot {
	rt := m.runtime
	snap := &MachineSnapshot{
		Output:      append([]byte(nil), rt.out.buf...),
		InputBuffer: rt.inputBuffer,
		Variables:   make(map[string]SnapshotScalar),
		Arrays:      make(map[string]SnapshotArray),
		Profile:     m.profile(),
	}

	for name, v := range rt.vars {
		if v.IsStr {
			snap.Variables[name] = SnapshotScalar{Type: "string", Value: v.Str}
		} else {
			snap.Variables[name] = SnapshotScalar{Type: "number", Value: v.Num}
		}
	}

	for name, arr := range rt.arrays {
		sa := SnapshotArray{Dimensions: append([]int(nil), arr.Dims...)}
		if arr.IsStr {
			sa.Kind = "string"
			sa.Length = arr.MaxLen
			for _, s := range arr.Strs {
				sa.Data = append(sa.Data, s)
			}
		} else {
			sa.Kind = "number"
			for _, n := range arr.Nums {
				sa.Data = append(sa.Data, n)
			}
		}
		snap.Arrays[name] = sa
	}

	for _, num := range rt.sortedLines() {
		snap.Program = append(snap.Program, snapLine{Line: num, Source: rt.program[num]})
	}

	if ap := rt.active; ap != nil && ap.waitingInput != nil {
		in := &SnapshotInput{
			Prompt:   ap.waitingInput.Prompt,
			ResumePC: ap.pc,
		}
		for _, t := range ap.waitingInput.Targets {
			in.Targets = append(in.Targets, t.Name)
		}
		snap.WaitingInput = in
	}

	return snap
}

// LoadSnapshot rebuilds the runtime from a snapshot. Subsequent inputs behave
// as they would have on the captured machine.
func (m *Machine) LoadSnapshot(snap *MachineSnapshot) error {
	rt := m.runtime
	rt.NewProgram()

	rt.out.Reset()
	rt.out.buf = append([]byte(nil), snap.Output...)
	rt.inputBuffer = snap.InputBuffer

	for name, sv := range snap.Variables {
		switch sv.Type {
		case "number":
			rt.vars[name] = numValue(jsonInt(sv.Value))
		case "string":
			s, _ := sv.Value.(string)
			rt.vars[name] = strValue(s)
		default:
			return fmt.Errorf("snapshot: bad scalar type %q", sv.Type)
		}
	}

	for name, sa := range snap.Arrays {
		arr := newBasicArray(name, sa.Dimensions, sa.Length)
		for i, raw := range sa.Data {
			if arr.IsStr {
				if i < len(arr.Strs) {
					arr.Strs[i], _ = raw.(string)
				}
			} else if i < len(arr.Nums) {
				arr.Nums[i] = jsonInt(raw)
			}
		}
		rt.arrays[name] = arr
	}

	for _, line := range snap.Program {
		if err := rt.StoreLine(line.Line, line.Source); err != nil {
			return fmt.Errorf("snapshot line %d: %s", line.Line, err.Message)
		}
	}

	if snap.WaitingInput != nil {
		prog, cerr := rt.compile()
		if cerr != nil {
			return fmt.Errorf("snapshot program: %s", cerr.Message)
		}
		req := &suspendInput{Prompt: snap.WaitingInput.Prompt}
		for _, name := range snap.WaitingInput.Targets {
			req.Targets = append(req.Targets, assignTarget{Name: name})
		}
		rt.runToken++
		rt.active = &activeProgram{
			prog:             prog,
			pc:               snap.WaitingInput.ResumePC,
			token:            rt.runToken,
			promptOnComplete: true,
			waitingInput:     req,
		}
	}

	return nil
}

// jsonInt tolerates the float64 shape json.Unmarshal gives numbers.
func jsonInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	}
	return 0
}

func (m *Machine) profile() string {
	return "pc-g815"
}

// MarshalSnapshot and UnmarshalSnapshot are the on-disk forms.
func MarshalSnapshot(snap *MachineSnapshot) ([]byte, error) {
	return json.MarshalIndent(snap, "", "  ")
}

func UnmarshalSnapshot(data []byte) (*MachineSnapshot, error) {
	snap := &MachineSnapshot{}
	if err := json.Unmarshal(data, snap); err != nil {
		return nil, err
	}
	return snap, nil
}
