package codec

import (
	"bytes"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/schema"
	jsoniter "github.com/json-iterator/go"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"github.com/tencent-go/apix/errx"
)

const (
	ContentTypeJson    = "application/json"
	ContentTypeMsgpack = "application/x-msgpack"
	ContentTypeYaml    = "application/x-yaml"
	ContentTypeForm    = "application/x-www-form-urlencoded"
)

// Codec encodes and decodes request and response bodies for one
// content type.
type Codec interface {
	ContentType() string
	Unmarshal(data []byte, dst any) errx.Error
	Marshal(src any) ([]byte, errx.Error)
}

// ParseContentType reduces a Content-Type or Accept header value to its
// first media type, dropping parameters and any further ranges.
func ParseContentType(value string) string {
	if i := strings.IndexByte(value, ','); i >= 0 {
		value = value[:i]
	}
	if i := strings.IndexByte(value, ';'); i >= 0 {
		value = value[:i]
	}
	return strings.TrimSpace(value)
}

func Json() Codec {
	return json
}

var json = &jsonCodec{jsoniter.Config{
	SortMapKeys: true,
}.Froze()}

type jsonCodec struct {
	jsoniter.API
}

func (j *jsonCodec) ContentType() string {
	return ContentTypeJson
}

func (j *jsonCodec) Unmarshal(data []byte, dst any) errx.Error {
	err := j.API.Unmarshal(data, dst)
	if err != nil {
		return errx.Wrap(err).WithMsgf("Failed to unmarshal JSON data").Err()
	}
	return nil
}

func (j *jsonCodec) Marshal(src any) ([]byte, errx.Error) {
	data, err := j.API.Marshal(src)
	if err != nil {
		return nil, errx.Wrap(err).WithMsgf("Failed to marshal JSON data").Err()
	}
	return data, nil
}

type msgpackCodec struct{}

func Msgpack() Codec {
	return &msgpackCodec{}
}

func (v *msgpackCodec) ContentType() string {
	return ContentTypeMsgpack
}

func (v *msgpackCodec) Unmarshal(data []byte, dst any) errx.Error {
	decoder := msgpack.NewDecoder(bytes.NewReader(data))
	decoder.SetCustomStructTag("json")
	err := decoder.Decode(dst)
	if err != nil {
		return errx.Wrap(err).AppendMsgf("Failed to unmarshal msgpack data").Err()
	}
	return nil
}

func (v *msgpackCodec) Marshal(src any) ([]byte, errx.Error) {
	var buf bytes.Buffer
	encoder := msgpack.NewEncoder(&buf)
	encoder.SetCustomStructTag("json")
	err := encoder.Encode(src)
	if err != nil {
		return nil, errx.Wrap(err).AppendMsgf("Failed to marshal msgpack data").Err()
	}
	return buf.Bytes(), nil
}

type yamlCodec struct{}

func Yaml() Codec {
	return &yamlCodec{}
}

func (v *yamlCodec) ContentType() string {
	return ContentTypeYaml
}

func (v *yamlCodec) Unmarshal(data []byte, dst any) errx.Error {
	err := yaml.Unmarshal(data, dst)
	if err != nil {
		return errx.Wrap(err).AppendMsgf("Failed to unmarshal YAML data").Err()
	}
	return nil
}

func (v *yamlCodec) Marshal(src any) ([]byte, errx.Error) {
	data, err := yaml.Marshal(src)
	if err != nil {
		return nil, errx.Wrap(err).AppendMsgf("Failed to marshal YAML data").Err()
	}
	return data, nil
}

// FormCodec additionally binds directly to and from url.Values, used
// for query strings as well as form bodies.
type FormCodec interface {
	Codec
	Bind(src map[string][]string, dst any) errx.Error
	Extract(src any, dst map[string][]string) errx.Error
}

type formCodec struct {
	*schema.Decoder
	*schema.Encoder
}

var formCodecInstance = sync.OnceValue(func() *formCodec {
	d := schema.NewDecoder()
	d.SetAliasTag("form")
	d.IgnoreUnknownKeys(true)
	e := schema.NewEncoder()
	e.SetAliasTag("form")
	return &formCodec{d, e}
})

func Form() FormCodec {
	return formCodecInstance()
}

func (v *formCodec) ContentType() string {
	return ContentTypeForm
}

func (v *formCodec) Unmarshal(data []byte, dst any) errx.Error {
	values, err := url.ParseQuery(string(data))
	if err != nil {
		return errx.Wrap(err).AppendMsgf("Failed to parse form data").Err()
	}
	err = v.Decode(dst, values)
	if err != nil {
		return errx.Wrap(err).AppendMsgf("Failed to decode form data").Err()
	}
	return nil
}

func (v *formCodec) Marshal(src any) ([]byte, errx.Error) {
	values := make(map[string][]string)
	err := v.Encode(src, values)
	if err != nil {
		return nil, errx.Wrap(err).AppendMsgf("Failed to encode form data").Err()
	}

	params := url.Values{}
	for key, vals := range values {
		for _, val := range vals {
			params.Add(key, val)
		}
	}
	return []byte(params.Encode()), nil
}

func (v *formCodec) Bind(src map[string][]string, dst any) errx.Error {
	err := v.Decode(dst, src)
	if err != nil {
		return errx.Wrap(err).AppendMsgf("Failed to bind form data").Err()
	}
	return nil
}

func (v *formCodec) Extract(src any, dst map[string][]string) errx.Error {
	err := v.Encode(src, dst)
	if err != nil {
		return errx.Wrap(err).AppendMsgf("Failed to extract form data").Err()
	}
	return nil
}
