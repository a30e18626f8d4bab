package rom

// audioPlayerSource is the bundled routine that interprets the byte-code
// stream audio.GenerateAudioData produces: register writes (register id,
// value) for channel 2, a 0xFF rest marker plus frame count, a 0xFE
// playfrom marker plus a little-endian target address, and a 0xFC disable
// marker. Call audio_player_step once per frame with hl pointing at the
// next opcode in the stream.
const audioPlayerSource = `
audio_player_step:
    ld a, [hl+]
    cp 0xFF
    jp z, audio_player_rest
    cp 0xFE
    jp z, audio_player_playfrom
    cp 0xFC
    jp z, audio_player_disable
    ld c, a
    ld a, [hl+]
    ldh [0xFF00+c], a
    jr audio_player_step

audio_player_rest:
    ld a, [hl+]
    ld [audio_player_rest_counter], a
    ret

audio_player_playfrom:
    ld c, [hl]
    inc hl
    ld b, [hl]
    ld h, b
    ld l, c
    jr audio_player_step

audio_player_disable:
    xor a
    ldh [0xFF00+0x26], a
    ret

audio_player_rest_counter: db 0
`
