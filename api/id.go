package api

import (
	"hash/fnv"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/vmihailenco/msgpack/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"

	"github.com/tencent-go/apix/errx"
)

var node *snowflake.Node

func init() {
	n, err := snowflake.NewNode(0)
	if err != nil {
		panic(err)
	}
	node = n
}

// SetIDNodeByString derives the snowflake node from a stable instance
// name (pod name, host name) so replicas never collide.
func SetIDNodeByString(str string) {
	h := fnv.New32a()
	h.Write([]byte(str))
	n, err := snowflake.NewNode(int64(h.Sum32()) % 1024)
	if err != nil {
		panic(err)
	}
	node = n
}

// ID is a snowflake identifier used for request tracing and audit
// records. It travels as a string in JSON and msgpack because 64-bit
// integers lose precision in JavaScript clients.
type ID int64

const EmptyID = ID(0)

func NewID() ID {
	return ID(node.Generate())
}

func ParseID(str string) (ID, errx.Error) {
	i, err := strconv.ParseInt(str, 10, 64)
	if err != nil {
		return 0, errx.Wrap(err).Err()
	}
	return ID(i), nil
}

func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

func (id ID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + id.String() + `"`), nil
}

func (id *ID) UnmarshalJSON(data []byte) error {
	str := string(data)
	if strings.HasPrefix(str, `"`) && strings.HasSuffix(str, `"`) {
		str = str[1 : len(str)-1]
	}
	if len(str) == 0 || str == "null" {
		*id = 0
		return nil
	}
	parsed, err := strconv.ParseInt(str, 10, 64)
	if err != nil {
		return err
	}
	*id = ID(parsed)
	return nil
}

func (id ID) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(int64(id))
}

func (id *ID) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	var tmp int64
	if err := bson.UnmarshalValue(t, data, &tmp); err != nil {
		return err
	}
	*id = ID(tmp)
	return nil
}

func (id ID) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.EncodeString(id.String())
}

func (id *ID) DecodeMsgpack(dec *msgpack.Decoder) error {
	code, err := dec.PeekCode()
	if err != nil {
		return err
	}
	// string family: fixstr, str8, str16, str32
	if (code >= 0xa0 && code <= 0xbf) || code == 0xd9 || code == 0xda || code == 0xdb {
		s, err := dec.DecodeString()
		if err != nil {
			return err
		}
		if s == "" {
			*id = 0
			return nil
		}
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return err
		}
		*id = ID(v)
		return nil
	}
	v, err := dec.DecodeInt64()
	if err != nil {
		return err
	}
	*id = ID(v)
	return nil
}
