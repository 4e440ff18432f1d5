package validation

import (
	"regexp"
	"strings"

	"github.com/tencent-go/apix/errx"
)

// Rule is the parsed form of one `validate` tag. Dive applies to slice
// and array elements or map values, MapKey to map keys.
type Rule struct {
	Required *bool
	Label    *string
	Min      *string
	Max      *string
	Pattern  *regexp.Regexp
	Enum     []string
	Dive     *Rule
	MapKey   *Rule
}

func (o *Rule) SetRequired(required bool) *Rule {
	o.Required = &required
	return o
}

func (o *Rule) SetLabel(label string) *Rule {
	o.Label = &label
	return o
}

func (o *Rule) SetMin(min string) *Rule {
	o.Min = &min
	return o
}

func (o *Rule) SetMax(max string) *Rule {
	o.Max = &max
	return o
}

func (o *Rule) SetPattern(pattern *regexp.Regexp) *Rule {
	o.Pattern = pattern
	return o
}

func (o *Rule) SetEnum(values ...string) *Rule {
	o.Enum = values
	return o
}

func (o *Rule) SetDive(dive *Rule) *Rule {
	o.Dive = dive
	return o
}

func (o *Rule) SetMapKey(mapKey *Rule) *Rule {
	o.MapKey = mapKey
	return o
}

var (
	reBareKey    = regexp.MustCompile("^[a-z]+$")
	reKeyComma   = regexp.MustCompile("^[a-z]+,")
	reQuotedKV   = regexp.MustCompile("^([a-z]+)='(.+)'(?:,[a-z]+)?")
	reKV         = regexp.MustCompile("^([a-z]+)=(.+)$")
	reNextOption = regexp.MustCompile(`,([a-z]+)`)
)

// Parse fills the rule from a tag such as
// "required,min=1,max=64,pattern='^[a-z]+$',enum='draft|published'".
// "dive" consumes the remainder of the tag as the element rule;
// "keys,...,endkeys" brackets the map-key rule.
func (o *Rule) Parse(tag string) errx.Error {
	waiting := strings.ReplaceAll(tag, " ", "")
	for len(waiting) > 0 {
		var key, value string
		{
			if reBareKey.MatchString(waiting) {
				key = waiting
				waiting = ""
			} else if idxs := reKeyComma.FindStringIndex(waiting); idxs != nil {
				key = waiting[:idxs[1]-1]
				waiting = waiting[idxs[1]:]
			} else if idxs = reQuotedKV.FindStringSubmatchIndex(waiting); idxs != nil {
				key = waiting[:idxs[3]]
				value = waiting[idxs[4]:idxs[5]]
				waiting = strings.TrimLeft(waiting[idxs[5]+1:], ",")
			} else if kvMatched := reKV.FindStringSubmatch(waiting); kvMatched != nil {
				key = kvMatched[1]
				value = kvMatched[2]
				if commaIdx := reNextOption.FindStringIndex(value); commaIdx != nil {
					waiting = value[commaIdx[0]+1:]
					value = value[:commaIdx[0]]
				} else {
					waiting = ""
				}
			} else {
				return errx.Newf("Invalid validate tag:%s, unknown key:%s", tag, waiting)
			}
			if key == "keys" {
				idx := strings.Index(waiting, ",endkeys")
				if idx == -1 {
					value = waiting
					waiting = ""
				} else {
					value = waiting[:idx]
					waiting = strings.TrimLeft(waiting[idx+len(",endkeys"):], ",")
				}
			}
		}
		switch key {
		case "required":
			switch value {
			case "", "true":
				o.SetRequired(true)
			case "false":
				o.SetRequired(false)
			}
		case "label":
			o.SetLabel(value)
		case "min":
			o.SetMin(value)
		case "max":
			o.SetMax(value)
		case "pattern":
			p, err := regexp.Compile(value)
			if err != nil {
				return errx.Newf("Invalid validate tag:%s, pattern:%s", tag, value)
			}
			o.SetPattern(p)
		case "enum":
			o.SetEnum(strings.Split(value, "|")...)
		case "dive":
			r := &Rule{}
			if len(waiting) > 0 {
				if err := r.Parse(waiting); err != nil {
					return err
				}
			}
			o.SetDive(r)
			return nil
		case "keys":
			r := &Rule{}
			if err := r.Parse(value); err != nil {
				return err
			}
			o.SetMapKey(r)
		default:
			return errx.Newf("Invalid validate tag:%s, unknown key:%s", tag, key)
		}
	}
	return nil
}
