package interaction

// The D-functions are the angular integrals of the four-particle collision term,
//
//	D(p0,p1,p2,p3) = (4/π) ∫_0^∞ dλ/λ² Π_a g_a(λ p_a)
//
// with g = sin for a momentum that enters only through |p| and
// g = cos(λp) - sin(λp)/(λp) for a momentum that enters through a dot product.
// Expanding every factor into exponentials leaves terms of the form
// c λ^-n exp(iλs) whose integral over λ is known in closed form, so the
// transforms below are exact piecewise polynomials in the momenta.

var factorial = [...]float64{1, 1, 2, 6, 24, 120, 720}

// sineTransform evaluates (4/π) ∫ dλ/λ² Π g_a for the given factor kinds.
// sine[a] selects sin(λk_a); otherwise the cosine combination is used.
func sineTransform(sine [4]bool, k [4]float64) float64 {
	var cosMask int
	for a, s := range sine {
		if !s {
			cosMask |= 1 << a
		}
	}

	sum := 0.0
	// every cosine factor splits into cos(λk) and -(1/k) sin(λk)/λ
	for pick := 0; pick < 16; pick++ {
		if pick&^cosMask != 0 {
			continue
		}
		coef := 1.0
		power := 2
		var isSin [4]bool
		for a := range 4 {
			switch {
			case sine[a]:
				isSin[a] = true
			case pick&(1<<a) != 0:
				isSin[a] = true
				coef *= -1 / k[a]
				power++
			}
		}

		for signs := 0; signs < 16; signs++ {
			c := complex(coef, 0)
			s := 0.0
			for a := range 4 {
				sg := 1.0
				if signs&(1<<a) != 0 {
					sg = -1
				}
				s += sg * k[a]
				if isSin[a] {
					c *= complex(0, -sg/2) // sg / 2i
				} else {
					c *= 0.5
				}
			}
			if s == 0 {
				continue
			}

			is := complex(0, s)
			term := complex(1, 0)
			for range power - 1 {
				term *= is
			}
			sign := 1.0
			if s < 0 {
				sign = -1
			}
			sum += real(c * term / complex(factorial[power-1], 0) * complex(0, 2*sign))
		}
	}
	return sum
}

// D1 is the sine transform of four bare momenta.
func D1(p [4]float64) float64 {
	return sineTransform([4]bool{true, true, true, true}, p)
}

// D2 weights the dot products of the last two momenta.
func D2(p1, p2, p3, p4 float64) float64 {
	return p3 * p4 * sineTransform([4]bool{true, true, false, false}, [4]float64{p1, p2, p3, p4})
}

// D3 weights all four momenta through dot products.
func D3(p [4]float64) float64 {
	return p[0] * p[1] * p[2] * p[3] * sineTransform([4]bool{false, false, false, false}, p)
}

// weight returns the angular-integrated matrix element for one element and one
// kinematic point. sides holds +1 for outgoing and -1 for incoming legs so that
// every leg momentum enters energy-momentum conservation with the same sign.
func weight(me MatrixElement, p, e, m [4]float64, sides [4]float64) float64 {
	i, j, k, l := me.order[0], me.order[1], me.order[2], me.order[3]

	var d1 float64
	if me.K1 != 0 || me.K2 != 0 {
		d1 = D1(p)
	}

	w := 0.0
	if me.K1 != 0 {
		w += me.K1 * (e[0]*e[1]*e[2]*e[3]*d1 +
			sides[k]*sides[l]*e[i]*e[j]*D2(p[i], p[j], p[k], p[l]) +
			sides[i]*sides[j]*e[k]*e[l]*D2(p[k], p[l], p[i], p[j]) +
			sides[0]*sides[1]*sides[2]*sides[3]*D3(p))
	}
	if me.K2 != 0 && m[i] != 0 && m[j] != 0 {
		w += me.K2 * m[i] * m[j] * (e[k]*e[l]*d1 + sides[k]*sides[l]*D2(p[i], p[j], p[k], p[l]))
	}
	return w
}
