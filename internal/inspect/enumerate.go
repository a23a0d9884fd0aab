package inspect

import "sort"

// Options control enumeration.
type Options struct {
	// SortKeys orders enumerable string keys alphabetically.
	SortKeys bool
}

// Enumerate lists the properties of obj in display order:
//
//	[SOURCE] for callables
//	enumerable string keys
//	getters
//	entries
//	hidden string keys, then __proto__
//	symbol keys that are not getters
//
// The first property is flagged FlagOpens and the last FlagCloses.
func Enumerate(obj Object, opts Options) []Property {
	var source, visible, getters, entries, hidden, symbols []Property

	if _, ok := obj.(Callable); ok {
		source = append(source, Property{Key: Key{Name: SourceKey}, Flags: FlagSource})
	}

	for _, p := range obj.OwnKeys() {
		switch {
		case p.Flags.Has(FlagGetter):
			getters = append(getters, p)
		case p.Flags.Has(FlagSymbol) || p.Key.Symbol:
			p.Flags |= FlagSymbol
			symbols = append(symbols, p)
		case p.Flags.Has(FlagHidden):
			hidden = append(hidden, p)
		default:
			p.Flags |= FlagEnumerable
			visible = append(visible, p)
		}
	}

	if opts.SortKeys {
		sort.SliceStable(visible, func(i, j int) bool {
			return visible[i].Key.Name < visible[j].Key.Name
		})
	}

	if e, ok := obj.(Entrier); ok {
		for _, p := range e.Entries() {
			p.Flags |= FlagEntry
			entries = append(entries, p)
		}
	}

	if p, ok := obj.(Prototyped); ok {
		if proto, ok := p.Proto(); ok && proto != nil {
			hidden = append(hidden, Property{Key: Key{Name: ProtoKey}, Flags: FlagHidden | FlagProto})
		}
	}

	props := make([]Property, 0, len(source)+len(visible)+len(getters)+len(entries)+len(hidden)+len(symbols))
	props = append(props, source...)
	props = append(props, visible...)
	props = append(props, getters...)
	props = append(props, entries...)
	props = append(props, hidden...)
	props = append(props, symbols...)

	if len(props) > 0 {
		props[0].Flags |= FlagOpens
		props[len(props)-1].Flags |= FlagCloses
	}
	return props
}

// Read resolves a property of obj, including the synthetic keys.
// Panics raised while reading are returned as errors.
func Read(obj Object, p Property) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()

	switch {
	case p.Flags.Has(FlagSource):
		if c, ok := obj.(Callable); ok {
			return c.Source(), nil
		}
		return Undefined, nil
	case p.Flags.Has(FlagProto):
		if pr, ok := obj.(Prototyped); ok {
			proto, _ := pr.Proto()
			return proto, nil
		}
		return Undefined, nil
	}
	return obj.Get(p.Key)
}
