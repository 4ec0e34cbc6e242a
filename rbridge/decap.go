// Copyright 2017 DigitalOcean.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rbridge

// decaps pulls the TRILL header and any option area off the front of
// f, mirroring rbr_decaps. The caller must already have pulled the
// outer Ethernet addressing (see Recv), leaving the TRILL header at
// the front of f. It returns the decoded header and, if an 8-byte VNT
// extension was present, the parsed extension.
func decaps(f *Frame) (TRH, *VNTExtension, error) {
	if f.Len() < trhSize {
		return TRH{}, nil, dropf(reasonBadArg, "frame too short for trill header")
	}
	trh := DecodeTRH(f.Pull(trhSize))

	opts := trh.OptsLenBytes()
	if opts == 0 {
		f.Encapsulated = false
		return trh, nil, nil
	}
	if f.Len() < opts {
		return TRH{}, nil, dropf(reasonBadArg, "frame too short for trill options")
	}
	optBuf := f.Pull(opts)

	// trill_opt precedes the VNT extension in the option area; it
	// carries no information this engine consumes, so it is only
	// skipped over here.
	var vnt *VNTExtension
	if opts >= optHeaderSize+vntExtensionSize {
		v := DecodeVNTExtension(optBuf[optHeaderSize : optHeaderSize+vntExtensionSize])

		// The kernel source this is adapted from guards the VNT
		// extension with
		// trill_extension_get_type(vnt->flags != VNT_EXTENSION_TYPE),
		// which compares the raw flags word against the type
		// constant before the type field is ever extracted — the
		// comparison and the extraction are the wrong way round, so
		// the check almost never does what its shape suggests. The
		// intended behavior, reproduced here, is to drop the frame
		// unless the parsed type field equals VNTType.
		if v.Type != VNTType {
			f.Encapsulated = false
			return trh, nil, dropf(reasonPolicy, "vnt extension type mismatch: got %d want %d", v.Type, VNTType)
		}
		vnt = &v
	}

	f.Encapsulated = false
	return trh, vnt, nil
}

// decapFinish delivers or floods a just-decapsulated frame based on a
// forwarding-database lookup of its inner destination MAC, mirroring
// rbr_decap_finish. A unicast hit whose VNI doesn't match the
// frame's VNT extension is treated the same as a miss: it falls
// through to the TRILL flood path rather than leaking across VNI
// boundaries.
func (e *Engine) decapFinish(f *Frame, vid uint16, vnt *VNTExtension) {
	dstMAC, ok := innerDstMAC(f)
	if !ok {
		e.hb.TrillFloodForward(f)
		return
	}

	entry, ok := e.hb.FDBGet(dstMAC, vid)
	if !ok {
		e.hb.TrillFloodForward(f)
		return
	}

	if vnt != nil {
		vni, ok := e.vnt.FindVNI(vnt.VNI)
		if !ok {
			e.hb.TrillFloodForward(f)
			return
		}
		if portVNI, ok := vni.PortVNI(entry.Port); !ok || portVNI != vnt.VNI {
			e.hb.TrillFloodForward(f)
			return
		}
	}

	e.hb.Deliver(entry.Port, f)
}

func innerDstMAC(f *Frame) (MAC, bool) {
	if f.Len() < 6 {
		return MAC{}, false
	}
	var m MAC
	copy(m[:], f.Bytes()[0:6])
	return m, true
}
