// Package shader prepares shader sources for compilation.
//
// It implements the pieces of shader handling that are independent of any
// GPU backend:
//
//   - keyword variants: [InjectKeywords] inserts "#define NAME" lines after
//     a leading "#version" pragma (or at the top of the source), and
//     [HashKeywords] computes the additive, order-independent key used to
//     cache compiled variants;
//   - a small preprocessor ([Preprocess]) supporting #define, #undef,
//     #ifdef, #ifndef, #else and #endif, used by backends whose compiler
//     has no preprocessor of its own (WGSL) or that interpret sources
//     themselves (the software backend);
//   - uniform reflection: [ReflectGLSL] scans file-scope declarations,
//     while WGSL is parsed and validated by naga ([ParseWGSL]) and
//     [ReflectWGSL] reads the uniform struct offsets and group 0 bindings
//     from the resulting IR.
package shader
