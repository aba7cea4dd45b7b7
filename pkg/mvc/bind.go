package mvc

import "strings"

// Bind builds the argument list for a under the negotiated strategy.
func Bind(strategy Strategy, r *Request, a *Action) (*Args, error) {
	args := newArgs(a.Params)
	if err := seedPairs(args, r.Query); err != nil {
		return nil, err
	}
	switch strategy {
	case StrategyForm:
		if err := seedPairs(args, r.Body.Form); err != nil {
			return nil, err
		}
	case StrategyJSON:
		if err := bindJSON(args, r); err != nil {
			return nil, err
		}
	case StrategyMultipart:
		if err := seedPairs(args, r.Body.Form); err != nil {
			return nil, err
		}
		if err := bindMultipart(args, r); err != nil {
			return nil, err
		}
	}
	return args, nil
}

// seedPairs applies pairs to the scalar parameters by case-insensitive name.
// Parameters without a matching key keep their current value.
func seedPairs(args *Args, pairs Pairs) error {
	if len(pairs) == 0 {
		return nil
	}
	for i, p := range args.params {
		if !p.Kind.scalar() {
			continue
		}
		raw, ok := pairs.Lookup(p.Name)
		if !ok {
			continue
		}
		v, err := Convert(p.Kind, raw)
		if err != nil {
			return BadRequest("parameter '%s': %v", p.Name, err)
		}
		args.put(i, v)
	}
	return nil
}

func bindJSON(args *Args, r *Request) error {
	if len(args.params) == 1 {
		v, err := decodeJSON(args.params[0], r.Body.Raw)
		if err != nil {
			return malformed(err)
		}
		args.put(0, v)
		return nil
	}
	for i, p := range args.params {
		if !p.FromBody {
			continue
		}
		v, err := decodeJSON(p, r.Body.Raw)
		if err != nil {
			return malformed(err)
		}
		args.put(i, v)
	}
	return nil
}

func bindMultipart(args *Args, r *Request) error {
	files := r.Body.Files
	if len(args.params) == 1 && args.params[0].Kind == KindFiles {
		args.put(0, append([]*FilePart(nil), files...))
		return nil
	}
	for i, p := range args.params {
		part := fileByKey(files, p.Name)
		if part == nil {
			continue
		}
		if p.FromBody && strings.HasPrefix(part.ContentType, ContentJSON) {
			text, err := decodeCharset(r.Body.Raw, part.Charset)
			if err != nil {
				return BadRequest("parameter '%s': %v", p.Name, err)
			}
			v, err := decodeJSON(p, []byte(text))
			if err != nil {
				return malformed(err)
			}
			args.put(i, v)
			continue
		}
		v, err := filePartValue(p, part)
		if err != nil {
			return err
		}
		args.put(i, v)
	}
	return nil
}

// fileByKey returns the first part whose field key equals key exactly.
func fileByKey(files []*FilePart, key string) *FilePart {
	for _, f := range files {
		if f.Key == key {
			return f
		}
	}
	return nil
}

func filePartValue(p Param, part *FilePart) (any, error) {
	switch p.Kind {
	case KindFile:
		return part, nil
	case KindFiles:
		return []*FilePart{part}, nil
	case KindBytes:
		return part.Data, nil
	case KindString:
		text, err := decodeCharset(part.Data, part.Charset)
		if err != nil {
			return nil, BadRequest("parameter '%s': %v", p.Name, err)
		}
		return text, nil
	case KindModel:
		text, err := decodeCharset(part.Data, part.Charset)
		if err != nil {
			return nil, BadRequest("parameter '%s': %v", p.Name, err)
		}
		v, err := decodeJSON(p, []byte(text))
		if err != nil {
			return nil, malformed(err)
		}
		return v, nil
	}
	text, err := decodeCharset(part.Data, part.Charset)
	if err != nil {
		return nil, BadRequest("parameter '%s': %v", p.Name, err)
	}
	v, err := Convert(p.Kind, strings.TrimSpace(text))
	if err != nil {
		return nil, BadRequest("parameter '%s': %v", p.Name, err)
	}
	return v, nil
}
