package decoder

// DefaultDecoders 返回所有内置 Decoder。
// 顺序决定同优先级时的选择，TimeDecoder 需要排在 TextUnmarshalerDecoder 之前。
func DefaultDecoders() []Decoder {
	return []Decoder{
		BoolDecoder{},
		ByteDecoder{},
		CharDecoder{},
		IntegerDecoder{},
		Int8Decoder{},
		ShortDecoder{},
		Int32Decoder{},
		LongDecoder{},
		UintDecoder{},
		Uint16Decoder{},
		Uint32Decoder{},
		Uint64Decoder{},
		FloatDecoder{},
		DoubleDecoder{},
		StringDecoder{},
		DurationDecoder{},
		TimeDecoder{},
		PathDecoder{},
		URLDecoder{},
		TextUnmarshalerDecoder{},
		SliceDecoder{},
		ArrayDecoder{},
		SetDecoder{},
		MapDecoder{},
		StructDecoder{},
		PointerDecoder{},
		InterfaceDecoder{},
	}
}
