package inspect

import (
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// jsonObject adapts a JSON object or array.
type jsonObject struct {
	res gjson.Result
}

func ofJSON(raw []byte) (Object, bool) {
	if !gjson.ValidBytes(raw) {
		return nil, false
	}
	res := gjson.ParseBytes(raw)
	if !res.IsObject() && !res.IsArray() {
		return nil, false
	}
	return &jsonObject{res: res}, true
}

func (o *jsonObject) TypeName() (string, string) {
	if o.res.IsArray() {
		return "Array", "json"
	}
	return "Object", "json"
}

func (o *jsonObject) IsArray() bool {
	return o.res.IsArray()
}

func (o *jsonObject) Len() (int, bool) {
	n := 0
	o.res.ForEach(func(_, _ gjson.Result) bool {
		n++
		return true
	})
	return n, true
}

func (o *jsonObject) OwnKeys() []Property {
	var props []Property
	i := 0
	o.res.ForEach(func(k, _ gjson.Result) bool {
		name := k.String()
		if o.res.IsArray() {
			name = strconv.Itoa(i)
		}
		props = append(props, Property{Key: Key{Name: name, Ref: i}, Flags: FlagEnumerable})
		i++
		return true
	})
	return props
}

func (o *jsonObject) Get(key Key) (any, error) {
	idx, _ := key.Ref.(int)
	var found gjson.Result
	i := 0
	o.res.ForEach(func(_, v gjson.Result) bool {
		if i == idx {
			found = v
			return false
		}
		i++
		return true
	})
	if !found.Exists() {
		return nil, fmt.Errorf("%s: %w", key.Name, ErrNoSuchKey)
	}
	return fromJSON(found), nil
}

// Compact returns the document on one line.
func (o *jsonObject) Compact() string {
	return string(pretty.Ugly([]byte(o.res.Raw)))
}

func fromJSON(r gjson.Result) any {
	switch r.Type {
	case gjson.Null:
		return nil
	case gjson.False:
		return false
	case gjson.True:
		return true
	case gjson.String:
		return r.Str
	case gjson.Number:
		if i := r.Int(); float64(i) == r.Num {
			return i
		}
		return r.Num
	}
	if obj, ok := ofJSON([]byte(r.Raw)); ok {
		return obj
	}
	return r.Raw
}
