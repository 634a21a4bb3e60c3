package command

import (
	"path"
	"strings"

	"github.com/lojhan/hashchain/internal/resp"
	"github.com/lojhan/hashchain/internal/store"
)

// SetCommand handles SET key value [GET]. With GET the reply is the value the
// key held before, or null.
func SetCommand(ks *Keyspace) func([]resp.Value) resp.Value {
	return func(args []resp.Value) resp.Value {
		if len(args) != 2 && len(args) != 3 {
			return wrongArgs("set")
		}
		strs, ok := bulkStrings(args)
		if !ok {
			return resp.ErrorValue("ERR invalid argument type")
		}

		withGet := false
		if len(strs) == 3 {
			if !strings.EqualFold(strs[2], "GET") {
				return resp.ErrorValue("ERR syntax error")
			}
			withGet = true
		}

		var (
			prev     string
			replaced bool
			err      error
		)
		ks.Do(func(t *Table) {
			prev, replaced, err = t.Put(strs[0], strs[1])
		})
		if err != nil {
			return errorReply(err)
		}

		if !withGet {
			return resp.OKValue()
		}
		if !replaced {
			return resp.NullBulkStringValue()
		}
		return resp.BulkStringValue(prev)
	}
}

func GetCommand(ks *Keyspace) func([]resp.Value) resp.Value {
	return func(args []resp.Value) resp.Value {
		if len(args) != 1 {
			return wrongArgs("get")
		}
		strs, ok := bulkStrings(args)
		if !ok {
			return resp.ErrorValue("ERR invalid argument type")
		}

		var (
			value  string
			exists bool
			err    error
		)
		ks.Do(func(t *Table) {
			value, exists, err = t.Get(strs[0])
		})
		if err != nil {
			return errorReply(err)
		}
		if !exists {
			return resp.NullBulkStringValue()
		}
		return resp.BulkStringValue(value)
	}
}

func GetDelCommand(ks *Keyspace) func([]resp.Value) resp.Value {
	return func(args []resp.Value) resp.Value {
		if len(args) != 1 {
			return wrongArgs("getdel")
		}
		strs, ok := bulkStrings(args)
		if !ok {
			return resp.ErrorValue("ERR invalid argument type")
		}

		var (
			value   string
			removed bool
			err     error
		)
		ks.Do(func(t *Table) {
			value, removed, err = t.Remove(strs[0])
		})
		if err != nil {
			return errorReply(err)
		}
		if !removed {
			return resp.NullBulkStringValue()
		}
		return resp.BulkStringValue(value)
	}
}

func DelCommand(ks *Keyspace) func([]resp.Value) resp.Value {
	return func(args []resp.Value) resp.Value {
		if len(args) == 0 {
			return wrongArgs("del")
		}
		keys, ok := bulkStrings(args)
		if !ok {
			return resp.ErrorValue("ERR invalid argument type")
		}

		var (
			count int64
			err   error
		)
		ks.Do(func(t *Table) {
			for _, key := range keys {
				var removed bool
				if _, removed, err = t.Remove(key); err != nil {
					return
				}
				if removed {
					count++
				}
			}
		})
		if err != nil {
			return errorReply(err)
		}
		return resp.IntegerValue(count)
	}
}

func ExistsCommand(ks *Keyspace) func([]resp.Value) resp.Value {
	return func(args []resp.Value) resp.Value {
		if len(args) == 0 {
			return wrongArgs("exists")
		}
		keys, ok := bulkStrings(args)
		if !ok {
			return resp.ErrorValue("ERR invalid argument type")
		}

		var (
			count int64
			err   error
		)
		ks.Do(func(t *Table) {
			for _, key := range keys {
				var exists bool
				if exists, err = t.ContainsKey(key); err != nil {
					return
				}
				if exists {
					count++
				}
			}
		})
		if err != nil {
			return errorReply(err)
		}
		return resp.IntegerValue(count)
	}
}

func ContainsValueCommand(ks *Keyspace) func([]resp.Value) resp.Value {
	return func(args []resp.Value) resp.Value {
		if len(args) != 1 {
			return wrongArgs("containsvalue")
		}
		strs, ok := bulkStrings(args)
		if !ok {
			return resp.ErrorValue("ERR invalid argument type")
		}

		var found bool
		ks.Do(func(t *Table) {
			found = t.ContainsValue(strs[0])
		})
		if found {
			return resp.IntegerValue(1)
		}
		return resp.IntegerValue(0)
	}
}

// DelValueCommand removes every key currently holding the given value and
// replies with how many were removed.
func DelValueCommand(ks *Keyspace) func([]resp.Value) resp.Value {
	return func(args []resp.Value) resp.Value {
		if len(args) != 1 {
			return wrongArgs("delvalue")
		}
		strs, ok := bulkStrings(args)
		if !ok {
			return resp.ErrorValue("ERR invalid argument type")
		}

		var (
			count int64
			err   error
		)
		ks.Do(func(t *Table) {
			it := t.Entries().Iterator()
			for it.HasNext() {
				var e store.Entry[string, string]
				if e, err = it.Next(); err != nil {
					return
				}
				if e.Value != strs[0] {
					continue
				}
				if err = it.Remove(); err != nil {
					return
				}
				count++
			}
		})
		if err != nil {
			return errorReply(err)
		}
		return resp.IntegerValue(count)
	}
}

func DBSizeCommand(ks *Keyspace) func([]resp.Value) resp.Value {
	return func(args []resp.Value) resp.Value {
		if len(args) != 0 {
			return wrongArgs("dbsize")
		}
		var size int
		ks.Do(func(t *Table) {
			size = t.Len()
		})
		return resp.IntegerValue(int64(size))
	}
}

func FlushDBCommand(ks *Keyspace) func([]resp.Value) resp.Value {
	return func(args []resp.Value) resp.Value {
		ks.Do(func(t *Table) {
			t.Clear()
		})
		return resp.OKValue()
	}
}

// KeysCommand filters keys with path.Match rather than Redis glob rules:
// '*' and '?' never match '/', so "user:*" skips "user:a/b" and "user:*/*"
// is needed to reach it. The bare pattern "*" is special-cased to match
// every key.
func KeysCommand(ks *Keyspace) func([]resp.Value) resp.Value {
	return func(args []resp.Value) resp.Value {
		if len(args) != 1 {
			return wrongArgs("keys")
		}
		strs, ok := bulkStrings(args)
		if !ok {
			return resp.ErrorValue("ERR invalid argument type")
		}
		pattern := strs[0]
		if _, err := path.Match(pattern, ""); err != nil {
			return resp.ErrorValue("ERR invalid pattern")
		}

		var keys *store.KeySet[string, string]
		ks.Do(func(t *Table) {
			keys = t.Keys()
		})

		result := make([]resp.Value, 0, keys.Len())
		for key := range keys.All() {
			if pattern != "*" {
				if matched, _ := path.Match(pattern, key); !matched {
					continue
				}
			}
			result = append(result, resp.BulkStringValue(key))
		}
		return resp.ArrayValue(result...)
	}
}

// GetAllCommand replies with every key and value as a flat array.
func GetAllCommand(ks *Keyspace) func([]resp.Value) resp.Value {
	return func(args []resp.Value) resp.Value {
		if len(args) != 0 {
			return wrongArgs("getall")
		}

		var entries *store.EntrySet[string, string]
		ks.Do(func(t *Table) {
			entries = t.Entries()
		})

		result := make([]resp.Value, 0, 2*entries.Len())
		for key, value := range entries.All() {
			result = append(result, resp.BulkStringValue(key), resp.BulkStringValue(value))
		}
		return resp.ArrayValue(result...)
	}
}

// MSetCommand stages the pairs in a separate table so a later key wins over
// an earlier duplicate, then copies them in under one lock.
func MSetCommand(ks *Keyspace) func([]resp.Value) resp.Value {
	return func(args []resp.Value) resp.Value {
		if len(args) == 0 || len(args)%2 != 0 {
			return wrongArgs("mset")
		}
		strs, ok := bulkStrings(args)
		if !ok {
			return resp.ErrorValue("ERR invalid argument type")
		}

		staged := store.NewStringTable[string]()
		for i := 0; i < len(strs); i += 2 {
			if _, _, err := staged.Put(strs[i], strs[i+1]); err != nil {
				return errorReply(err)
			}
		}

		var err error
		ks.Do(func(t *Table) {
			err = t.PutAll(staged)
		})
		if err != nil {
			return errorReply(err)
		}
		return resp.OKValue()
	}
}

func HashCodeCommand(ks *Keyspace) func([]resp.Value) resp.Value {
	return func(args []resp.Value) resp.Value {
		if len(args) != 0 {
			return wrongArgs("hashcode")
		}
		var code uint64
		ks.Do(func(t *Table) {
			code = t.HashCode()
		})
		return resp.IntegerValue(int64(code))
	}
}
