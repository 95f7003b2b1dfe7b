package wal

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"lrukpool/bufferpool"
)

// setIntRecordType identifies the kind of a log record's first field. This
// log currently backs only the buffer pool's before-image bookkeeping,
// so one kind is enough; a record layer built on top of this package
// can extend the type space without this package knowing about it.
const setIntRecordType = int32(1)

// SetIntRecord is a before-image record for a single-int write: the
// value at blk/offset before a transaction overwrote it, so recovery
// (not implemented by this pool) could undo it. The buffer pool only
// needs this package's Append/FlushTo/CurrentLSN; record encoding
// lives here so a future recovery manager has somewhere to start.
type SetIntRecord struct {
	TxNum  int64
	Blk    bufferpool.BlockId
	Offset int
	OldVal int
}

// ToBytes serializes the record for wal.LogMgr.Append.
func (r SetIntRecord) ToBytes() []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.BigEndian, setIntRecordType)
	_ = binary.Write(&buf, binary.BigEndian, r.TxNum)

	filename := []byte(r.Blk.FileName())
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(filename)))
	buf.Write(filename)
	_ = binary.Write(&buf, binary.BigEndian, int32(r.Blk.Number()))
	_ = binary.Write(&buf, binary.BigEndian, int32(r.Offset))
	_ = binary.Write(&buf, binary.BigEndian, int32(r.OldVal))
	return buf.Bytes()
}

// SetIntRecordFromBytes parses a record previously produced by
// SetIntRecord.ToBytes.
func SetIntRecordFromBytes(data []byte) (SetIntRecord, error) {
	buf := bytes.NewReader(data)

	var kind int32
	if err := binary.Read(buf, binary.BigEndian, &kind); err != nil {
		return SetIntRecord{}, fmt.Errorf("wal: read record type: %w", err)
	}
	if kind != setIntRecordType {
		return SetIntRecord{}, fmt.Errorf("wal: unexpected record type %d", kind)
	}

	var r SetIntRecord
	if err := binary.Read(buf, binary.BigEndian, &r.TxNum); err != nil {
		return SetIntRecord{}, fmt.Errorf("wal: read txnum: %w", err)
	}

	var nameLen uint32
	if err := binary.Read(buf, binary.BigEndian, &nameLen); err != nil {
		return SetIntRecord{}, fmt.Errorf("wal: read filename length: %w", err)
	}
	name := make([]byte, nameLen)
	if _, err := io.ReadFull(buf, name); err != nil {
		return SetIntRecord{}, fmt.Errorf("wal: read filename: %w", err)
	}

	var blkNum, offset, oldVal int32
	if err := binary.Read(buf, binary.BigEndian, &blkNum); err != nil {
		return SetIntRecord{}, fmt.Errorf("wal: read block number: %w", err)
	}
	if err := binary.Read(buf, binary.BigEndian, &offset); err != nil {
		return SetIntRecord{}, fmt.Errorf("wal: read offset: %w", err)
	}
	if err := binary.Read(buf, binary.BigEndian, &oldVal); err != nil {
		return SetIntRecord{}, fmt.Errorf("wal: read old value: %w", err)
	}

	r.Blk = bufferpool.NewBlockId(string(name), int(blkNum))
	r.Offset = int(offset)
	r.OldVal = int(oldVal)
	return r, nil
}
