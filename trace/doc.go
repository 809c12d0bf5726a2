// Package trace assembles records into continuous per-channel segments and
// decodes them lazily.
//
// A List is an arena of channels. Each Channel is identified by its source
// identifier and publication version and holds time-ordered, non-overlapping
// segments. A Segment covers a run of contiguous records; it stores references
// to those records and decodes them into one samples.Buffer on demand:
//
//	list, err := trace.NewList(trace.WithLogger(logger))
//	src := list.AddSource(file, "day.rec")
//	stats, err := list.ReadFrom(reader, src, sel)
//
//	for ci, ch := range list.Channels() {
//	    for si := range ch.Segments {
//	        buf, err := list.Decode(ci, si, codec)
//	        ...
//	    }
//	}
//
// Decoded segments may be rewritten with Segment.Overwrite and serialized with
// List.Pack. Record bytes are reached through the Codec interface, so the
// assembly rules are independent of the record format.
package trace
