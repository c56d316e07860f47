package software

import "github.com/chewxy/math32"

// kernelFactory binds the uniforms of one draw and returns the per-fragment
// function. Each fragment program of the fluid pipeline has a CPU kernel
// registered under its shader label.
type kernelFactory func(d *drawCall) func(v *varyings) vec4

var fragmentKernels = map[string]kernelFactory{
	"copy":              copyKernel,
	"clear":             clearKernel,
	"color":             colorKernel,
	"checkerboard":      checkerboardKernel,
	"display":           displayKernel,
	"splat":             splatKernel,
	"advection":         advectionKernel,
	"divergence":        divergenceKernel,
	"curl":              curlKernel,
	"vorticity":         vorticityKernel,
	"pressure":          pressureKernel,
	"gradient_subtract": gradientSubtractKernel,
	"bloom_prefilter":   bloomPrefilterKernel,
	"bloom_blur":        bloomBlurKernel,
	"bloom_final":       bloomFinalKernel,
	"sunrays_mask":      sunraysMaskKernel,
	"sunrays":           sunraysKernel,
	"blur":              blurKernel,
}

func copyKernel(d *drawCall) func(v *varyings) vec4 {
	tex := d.texture("uTexture")
	return func(v *varyings) vec4 {
		return tex.sample(v.uv)
	}
}

func clearKernel(d *drawCall) func(v *varyings) vec4 {
	tex := d.texture("uTexture")
	value := d.float("value")
	return func(v *varyings) vec4 {
		return tex.sample(v.uv).scale(value)
	}
}

func colorKernel(d *drawCall) func(v *varyings) vec4 {
	c := d.vec4("color")
	return func(*varyings) vec4 { return c }
}

func checkerboardKernel(d *drawCall) func(v *varyings) vec4 {
	const scale = 25
	aspect := d.float("aspectRatio")
	return func(v *varyings) vec4 {
		x := math32.Floor(v.uv[0] * scale * aspect)
		y := math32.Floor(v.uv[1] * scale)
		c := math32.Mod(x+y, 2)*0.1 + 0.8
		return vec4{c, c, c, 1}
	}
}

func linearToGamma(c [3]float32) [3]float32 {
	for i := range c {
		c[i] = math32.Max(1.055*math32.Pow(math32.Max(c[i], 0), 0.416666667)-0.055, 0)
	}
	return c
}

func displayKernel(d *drawCall) func(v *varyings) vec4 {
	tex := d.texture("uTexture")
	shading := d.defined("SHADING")
	bloomOn := d.defined("BLOOM")
	sunraysOn := d.defined("SUNRAYS")

	texel := d.vec2("texelSize")
	bloomTex := d.texture("uBloom")
	dither := d.texture("uDithering")
	ditherScale := d.vec2("ditherScale")
	sunraysTex := d.texture("uSunrays")

	return func(v *varyings) vec4 {
		c := tex.sample(v.uv).rgb()

		if shading {
			lc := tex.sample(v.l).rgb()
			rc := tex.sample(v.r).rgb()
			tc := tex.sample(v.t).rgb()
			bc := tex.sample(v.b).rgb()

			dx := length3(rc) - length3(lc)
			dy := length3(tc) - length3(bc)
			nz := texel.length()
			nl := length3([3]float32{dx, dy, nz})
			diffuse := clamp(nz/nl+0.7, 0.7, 1.0)
			for i := range c {
				c[i] *= diffuse
			}
		}

		var bloom [3]float32
		if bloomOn {
			bloom = bloomTex.sample(v.uv).rgb()
		}

		if sunraysOn {
			s := sunraysTex.sample(v.uv)[0]
			for i := range c {
				c[i] *= s
				bloom[i] *= s
			}
		}

		if bloomOn {
			noise := dither.sample(v.uv.mul(ditherScale))[0]*2 - 1
			for i := range bloom {
				bloom[i] += noise / 255
			}
			bloom = linearToGamma(bloom)
			for i := range c {
				c[i] += bloom[i]
			}
		}

		return vec4{c[0], c[1], c[2], max3(c)}
	}
}

func splatKernel(d *drawCall) func(v *varyings) vec4 {
	target := d.texture("uTarget")
	aspect := d.float("aspectRatio")
	point := d.vec2("point")
	color := d.vec3("color")
	radius := d.float("radius")
	return func(v *varyings) vec4 {
		p := v.uv.sub(point)
		p[0] *= aspect
		e := math32.Exp(-p.dot(p) / radius)
		base := target.sample(v.uv)
		return vec4{base[0] + e*color[0], base[1] + e*color[1], base[2] + e*color[2], 1}
	}
}

// bilerp filters a nearest-sampled texture by hand.
func bilerp(s sampler, uv, tsize vec2) vec4 {
	st := vec2{uv[0]/tsize[0] - 0.5, uv[1]/tsize[1] - 0.5}
	iuv := vec2{math32.Floor(st[0]), math32.Floor(st[1])}
	fuv := vec2{fract(st[0]), fract(st[1])}

	a := s.sample(iuv.add(vec2{0.5, 0.5}).mul(tsize))
	b := s.sample(iuv.add(vec2{1.5, 0.5}).mul(tsize))
	c := s.sample(iuv.add(vec2{0.5, 1.5}).mul(tsize))
	e := s.sample(iuv.add(vec2{1.5, 1.5}).mul(tsize))
	return mix4(mix4(a, b, fuv[0]), mix4(c, e, fuv[0]), fuv[1])
}

func advectionKernel(d *drawCall) func(v *varyings) vec4 {
	velocity := d.texture("uVelocity")
	source := d.texture("uSource")
	texel := d.vec2("texelSize")
	dyeTexel := d.vec2("dyeTexelSize")
	dt := d.float("dt")
	decay := 1 + d.float("dissipation")*dt
	manual := d.defined("MANUAL_FILTERING")

	return func(v *varyings) vec4 {
		var result vec4
		if manual {
			vel := bilerp(velocity, v.uv, texel)
			coord := v.uv.sub(vec2{vel[0], vel[1]}.scale(dt).mul(texel))
			result = bilerp(source, coord, dyeTexel)
		} else {
			vel := velocity.sample(v.uv)
			coord := v.uv.sub(vec2{vel[0], vel[1]}.scale(dt).mul(texel))
			result = source.sample(coord)
		}
		return result.scale(1 / decay)
	}
}

func divergenceKernel(d *drawCall) func(v *varyings) vec4 {
	velocity := d.texture("uVelocity")
	return func(v *varyings) vec4 {
		l := velocity.sample(v.l)[0]
		r := velocity.sample(v.r)[0]
		t := velocity.sample(v.t)[1]
		b := velocity.sample(v.b)[1]

		c := velocity.sample(v.uv)
		if v.l[0] < 0 {
			l = -c[0]
		}
		if v.r[0] > 1 {
			r = -c[0]
		}
		if v.t[1] > 1 {
			t = -c[1]
		}
		if v.b[1] < 0 {
			b = -c[1]
		}
		return vec4{0.5 * (r - l + t - b), 0, 0, 1}
	}
}

func curlKernel(d *drawCall) func(v *varyings) vec4 {
	velocity := d.texture("uVelocity")
	return func(v *varyings) vec4 {
		l := velocity.sample(v.l)[1]
		r := velocity.sample(v.r)[1]
		t := velocity.sample(v.t)[0]
		b := velocity.sample(v.b)[0]
		return vec4{0.5 * (r - l - t + b), 0, 0, 1}
	}
}

func vorticityKernel(d *drawCall) func(v *varyings) vec4 {
	velocity := d.texture("uVelocity")
	curlTex := d.texture("uCurl")
	curl := d.float("curl")
	dt := d.float("dt")
	return func(v *varyings) vec4 {
		l := curlTex.sample(v.l)[0]
		r := curlTex.sample(v.r)[0]
		t := curlTex.sample(v.t)[0]
		b := curlTex.sample(v.b)[0]
		c := curlTex.sample(v.uv)[0]

		force := vec2{math32.Abs(t) - math32.Abs(b), math32.Abs(r) - math32.Abs(l)}.scale(0.5)
		force = force.scale(1 / (force.length() + 0.0001))
		force = force.scale(curl * c)
		force[1] = -force[1]

		vel := velocity.sample(v.uv)
		return vec4{
			clamp(vel[0]+force[0]*dt, -1000, 1000),
			clamp(vel[1]+force[1]*dt, -1000, 1000),
			0, 1,
		}
	}
}

func pressureKernel(d *drawCall) func(v *varyings) vec4 {
	pressure := d.texture("uPressure")
	divergence := d.texture("uDivergence")
	return func(v *varyings) vec4 {
		l := pressure.sample(v.l)[0]
		r := pressure.sample(v.r)[0]
		t := pressure.sample(v.t)[0]
		b := pressure.sample(v.b)[0]
		div := divergence.sample(v.uv)[0]
		return vec4{(l + r + b + t - div) * 0.25, 0, 0, 1}
	}
}

func gradientSubtractKernel(d *drawCall) func(v *varyings) vec4 {
	pressure := d.texture("uPressure")
	velocity := d.texture("uVelocity")
	return func(v *varyings) vec4 {
		l := pressure.sample(v.l)[0]
		r := pressure.sample(v.r)[0]
		t := pressure.sample(v.t)[0]
		b := pressure.sample(v.b)[0]
		vel := velocity.sample(v.uv)
		return vec4{vel[0] - (r - l), vel[1] - (t - b), 0, 1}
	}
}

func bloomPrefilterKernel(d *drawCall) func(v *varyings) vec4 {
	tex := d.texture("uTexture")
	curve := d.vec3("curve")
	threshold := d.float("threshold")
	return func(v *varyings) vec4 {
		c := tex.sample(v.uv).rgb()
		br := max3(c)
		rq := clamp(br-curve[0], 0, curve[1])
		rq = curve[2] * rq * rq
		k := math32.Max(rq, br-threshold) / math32.Max(br, 0.0001)
		return vec4{c[0] * k, c[1] * k, c[2] * k, 0}
	}
}

func bloomBlurKernel(d *drawCall) func(v *varyings) vec4 {
	tex := d.texture("uTexture")
	return func(v *varyings) vec4 {
		sum := tex.sample(v.l).add(tex.sample(v.r)).add(tex.sample(v.t)).add(tex.sample(v.b))
		return sum.scale(0.25)
	}
}

func bloomFinalKernel(d *drawCall) func(v *varyings) vec4 {
	tex := d.texture("uTexture")
	intensity := d.float("intensity")
	return func(v *varyings) vec4 {
		sum := tex.sample(v.l).add(tex.sample(v.r)).add(tex.sample(v.t)).add(tex.sample(v.b))
		return sum.scale(0.25 * intensity)
	}
}

func sunraysMaskKernel(d *drawCall) func(v *varyings) vec4 {
	tex := d.texture("uTexture")
	return func(v *varyings) vec4 {
		c := tex.sample(v.uv)
		br := max3(c.rgb())
		c[3] = 1 - math32.Min(math32.Max(br*20, 0), 0.8)
		return c
	}
}

func sunraysKernel(d *drawCall) func(v *varyings) vec4 {
	const (
		iterations = 16
		density    = 0.3
		decay      = 0.95
		exposure   = 0.7
	)
	tex := d.texture("uTexture")
	weight := d.float("weight")
	return func(v *varyings) vec4 {
		coord := v.uv
		dir := v.uv.sub(vec2{0.5, 0.5}).scale(1.0 / iterations * density)
		illumination := float32(1)

		color := tex.sample(v.uv)[3]
		for range iterations {
			coord = coord.sub(dir)
			color += tex.sample(coord)[3] * illumination * weight
			illumination *= decay
		}
		return vec4{color * exposure, 0, 0, 1}
	}
}

func blurKernel(d *drawCall) func(v *varyings) vec4 {
	tex := d.texture("uTexture")
	return func(v *varyings) vec4 {
		sum := tex.sample(v.uv).scale(0.29411764)
		sum = sum.add(tex.sample(v.l).scale(0.35294117))
		sum = sum.add(tex.sample(v.r).scale(0.35294117))
		return sum
	}
}
