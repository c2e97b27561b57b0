package storagelog

import (
	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/dirstorage/common"
	"go.uber.org/zap"
)

// headMsg is a distinctive part of all messages.
const headMsg = "local object storage operation"

// Write writes message about storage operation to logger.
func Write(logger *zap.Logger, fields ...zap.Field) {
	logger.Debug(headMsg, fields...)
}

// IDField returns logger's field for object ID.
func IDField(id int64) zap.Field {
	return zap.Int64("id", id)
}

// IDsField returns logger's field for a batch of object IDs.
func IDsField(ids []int64) zap.Field {
	return zap.Int64s("ids", ids)
}

// AddressField returns logger's field for physical record address.
func AddressField(addr common.Address) zap.Field {
	return zap.Stringer("address", addr)
}

// OpField returns logger's field for operation type.
func OpField(op string) zap.Field {
	return zap.String("op", op)
}

// StorageTypeField returns logger's field for storage type.
func StorageTypeField(typ string) zap.Field {
	return zap.String("type", typ)
}
